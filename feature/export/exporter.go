package export

import (
	"bytes"
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
	"quest-voice/core/utils"
	"quest-voice/feature/audioindex"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// DataFileName is the Lua table of voiced quests inside the add-on.
const DataFileName = "QuestVoiceData.lua"

// Config configures an AddonExporter.
type Config struct {
	Name      string
	Dir       string
	Interface string
	Version   string
	// OutputRoot is the root of the audio layout the index points into.
	OutputRoot string
	CopyAudio  bool
	// Upload pushes the package to Bucket under UploadPrefix/<Name>/.
	Upload       bool
	Bucket       string
	UploadPrefix string
}

// Result summarizes one export.
type Result struct {
	Quests   int
	Files    int
	Copied   int
	Uploaded int
	Dir      string
}

// AddonExporter writes the add-on package from the audio index.
type AddonExporter struct {
	cfg    Config
	index  *audioindex.Index
	client storage.Client
	logger *zap.Logger
}

// NewAddonExporter creates an exporter over index. client may be nil when uploads are disabled.
func NewAddonExporter(cfg Config, index *audioindex.Index, client storage.Client, logger *zap.Logger) *AddonExporter {
	if cfg.Name == "" {
		cfg.Name = "QuestVoice"
	}
	return &AddonExporter{cfg: cfg, index: index, client: client, logger: logger}
}

// Dir returns the add-on folder.
func (e *AddonExporter) Dir() string {
	return filepath.Join(e.cfg.Dir, e.cfg.Name)
}

// Export implements voicesync.Exporter.
func (e *AddonExporter) Export(ctx context.Context) error {
	_, err := e.Run(ctx)
	return err
}

// Run writes the package and returns what was exported.
func (e *AddonExporter) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	if e.index == nil {
		return nil, errors.New("audio index not configured")
	}
	if e.cfg.Upload && e.client == nil {
		return nil, errors.New("add-on upload requested but storage is not configured")
	}

	addonDir := e.Dir()
	if err := os.MkdirAll(addonDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create add-on directory: %w", err)
	}

	res := &Result{Dir: addonDir}
	voiced := make(map[int]map[audioindex.Gender]string)
	for _, entry := range e.index.Entries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(e.cfg.OutputRoot, entry.Path)
		if err != nil || strings.HasPrefix(rel, "..") {
			e.logger.Warn("Skipping audio outside the output root", zap.String("path", entry.Path))
			continue
		}
		if e.cfg.CopyAudio {
			copied, err := copyIfNewer(entry.Path, filepath.Join(addonDir, rel))
			if err != nil {
				return nil, err
			}
			if copied {
				res.Copied++
			}
		}
		if voiced[entry.QuestID] == nil {
			voiced[entry.QuestID] = make(map[audioindex.Gender]string, len(audioindex.Genders))
		}
		voiced[entry.QuestID][entry.Gender] = addonPath(e.cfg.Name, rel)
		res.Files++
	}
	res.Quests = len(voiced)

	if err := utils.WriteFileAtomic(filepath.Join(addonDir, e.cfg.Name+".toc"), e.toc(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write toc: %w", err)
	}
	if err := utils.WriteFileAtomic(filepath.Join(addonDir, DataFileName), luaData(e.index.Language(), voiced), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", DataFileName, err)
	}

	if e.cfg.Upload {
		n, err := e.upload(ctx, addonDir)
		if err != nil {
			return nil, err
		}
		res.Uploaded = n
	}

	e.logger.Info("Add-on exported",
		zap.String("dir", addonDir),
		zap.Int("quests", res.Quests),
		zap.Int("files", res.Files),
		zap.Int("copied", res.Copied),
		zap.Int("uploaded", res.Uploaded),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}

func (e *AddonExporter) toc() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "## Interface: %s\n", e.cfg.Interface)
	fmt.Fprintf(&b, "## Title: %s\n", e.cfg.Name)
	fmt.Fprintf(&b, "## Version: %s\n", e.cfg.Version)
	fmt.Fprintf(&b, "## Notes: Quest voice-over (%s)\n", e.index.Language())
	b.WriteString("\n")
	b.WriteString(DataFileName + "\n")
	return b.Bytes()
}

// upload mirrors every file of the add-on folder to object storage.
func (e *AddonExporter) upload(ctx context.Context, addonDir string) (int, error) {
	count := 0
	err := filepath.WalkDir(addonDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(addonDir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		key := path.Join(e.cfg.UploadPrefix, e.cfg.Name, filepath.ToSlash(rel))
		if _, err := e.client.PutObject(ctx, e.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{}); err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}
		count++
		return nil
	})
	return count, err
}

// addonPath converts a layout-relative path to the in-game path of the add-on file.
func addonPath(name, rel string) string {
	return `Interface\AddOns\` + name + `\` + strings.ReplaceAll(filepath.ToSlash(rel), "/", `\`)
}

// copyIfNewer copies src to dst unless dst is at least as new and the same size.
func copyIfNewer(src, dst string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if dstInfo, err := os.Stat(dst); err == nil &&
		dstInfo.Size() == srcInfo.Size() && !dstInfo.ModTime().Before(srcInfo.ModTime()) {
		return false, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", src, err)
	}
	if err := utils.WriteFileAtomic(dst, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return true, nil
}
