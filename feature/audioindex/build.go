package audioindex

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"quest-voice/core/storage"

	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/errgroup"
)

// BuildFromFilesystem scans <root>/audio/<lang>/{male,female}/<zone>/ for quest files.
// Missing or unreadable directories yield fewer entries, never an error; the
// only error returned is the context's.
func BuildFromFilesystem(ctx context.Context, root, languageCode string, extensions []string) (*Index, error) {
	exts := extensionSet(extensions)
	results := make([][]Entry, len(Genders))

	g, gctx := errgroup.WithContext(ctx)
	for i, gender := range Genders {
		dir := filepath.Join(root, "audio", languageCode, string(gender))
		g.Go(func() error {
			entries, err := scanGenderDir(gctx, dir, gender, exts)
			results[i] = entries
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix := New(languageCode)
	for _, entries := range results {
		for _, e := range entries {
			ix.put(e)
		}
	}
	return ix, nil
}

// scanGenderDir reads <dir>/<zone>/quest_<id>.<ext>. Files outside a zone directory are ignored.
func scanGenderDir(ctx context.Context, dir string, gender Gender, exts map[string]struct{}) ([]Entry, error) {
	zones, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil
	}

	var out []Entry
	for _, zone := range zones {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !zone.IsDir() {
			continue
		}
		zoneDir := filepath.Join(dir, zone.Name())
		files, err := os.ReadDir(zoneDir)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			id, ok := parseFileName(f.Name(), exts)
			if !ok {
				continue
			}
			out = append(out, Entry{
				QuestID:    id,
				Gender:     gender,
				Path:       filepath.Join(zoneDir, f.Name()),
				ModifiedAt: modTime(f),
			})
		}
	}
	return out, nil
}

func modTime(f fs.DirEntry) time.Time {
	info, err := f.Info()
	if err != nil {
		return time.Time{}
	}
	return info.ModTime().UTC()
}

// BuildFromStorage lists <prefix>/<lang>/{male,female}/<zone>/quest_<id>.<ext>
// from object storage. Entry paths are object keys.
func BuildFromStorage(ctx context.Context, client storage.Client, bucket, prefix, languageCode string, extensions []string) (*Index, error) {
	if client == nil {
		return nil, errors.New("storage client not configured")
	}
	exts := extensionSet(extensions)
	base := strings.Trim(path.Join(prefix, languageCode), "/") + "/"

	ix := New(languageCode)
	objects := client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    base,
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list audio objects: %w", obj.Err)
		}
		parts := strings.Split(strings.TrimPrefix(obj.Key, base), "/")
		if len(parts) != 3 {
			continue
		}
		gender, err := ParseGender(parts[0])
		if err != nil {
			continue
		}
		id, ok := parseFileName(parts[2], exts)
		if !ok {
			continue
		}
		ix.put(Entry{
			QuestID:    id,
			Gender:     gender,
			Path:       obj.Key,
			ModifiedAt: obj.LastModified.UTC(),
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ix, nil
}
