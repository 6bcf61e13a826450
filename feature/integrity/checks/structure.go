package checks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"quest-voice/core/storage"
	"quest-voice/feature/audioindex"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// RequiredPrefixes lists the folders that must exist in the bucket for the audio mirror
// and, when addonPrefix is set, the add-on upload target.
func RequiredPrefixes(audioPrefix, languageCode, addonPrefix string) []string {
	var prefixes []string
	for _, g := range audioindex.Genders {
		prefixes = append(prefixes, strings.Trim(path.Join(audioPrefix, languageCode, string(g)), "/"))
	}
	if p := strings.Trim(addonPrefix, "/"); p != "" {
		prefixes = append(prefixes, p)
	}
	return prefixes
}

// RequiredDirs lists the local directories of the audio layout under root.
func RequiredDirs(root, languageCode string) []string {
	dirs := make([]string, 0, len(audioindex.Genders))
	for _, g := range audioindex.Genders {
		dirs = append(dirs, filepath.Join(root, "audio", languageCode, string(g)))
	}
	return dirs
}

// CheckStructure returns the required folders that hold no object.
func CheckStructure(ctx context.Context, client storage.Client, bucket string, required []string) ([]string, error) {
	var missing []string

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	for _, folder := range required {
		folderPath := folder
		if !strings.HasSuffix(folderPath, "/") {
			folderPath += "/"
		}

		opts := minio.ListObjectsOptions{
			Prefix:    folderPath,
			Recursive: false,
			MaxKeys:   1,
		}

		found := false
		for obj := range client.ListObjects(ctx, bucket, opts) {
			if obj.Err != nil {
				return nil, fmt.Errorf("failed to list %s: %w", folderPath, obj.Err)
			}
			found = true
			break
		}

		if !found {
			missing = append(missing, folder)
		}
	}

	return missing, nil
}

// FixStructure creates the missing folders as empty marker objects.
func FixStructure(ctx context.Context, client storage.Client, bucket string, logger *zap.Logger, missing []string) error {
	for _, folder := range missing {
		folderPath := folder
		if !strings.HasSuffix(folderPath, "/") {
			folderPath += "/"
		}

		_, err := client.PutObject(ctx, bucket, folderPath, bytes.NewReader([]byte{}), 0, minio.PutObjectOptions{})
		if err != nil {
			logger.Error("Failed to create folder", zap.String("folder", folder), zap.Error(err))
			return err
		}
		logger.Info("Created missing folder", zap.String("folder", folder))
	}
	return nil
}

// CheckLayout returns the local directories that do not exist.
func CheckLayout(dirs []string) ([]string, error) {
	var missing []string
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		switch {
		case os.IsNotExist(err):
			missing = append(missing, dir)
		case err != nil:
			return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
		case !info.IsDir():
			return nil, fmt.Errorf("%s exists but is not a directory", dir)
		}
	}
	return missing, nil
}

// FixLayout creates the missing local directories.
func FixLayout(logger *zap.Logger, missing []string) error {
	for _, dir := range missing {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("Failed to create directory", zap.String("dir", dir), zap.Error(err))
			return err
		}
		logger.Info("Created missing directory", zap.String("dir", dir))
	}
	return nil
}
