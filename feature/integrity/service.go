package integrity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"quest-voice/core/reconcile"
	"quest-voice/core/storage"
	"quest-voice/feature/audioindex"
	"quest-voice/feature/integrity/checks"
	"quest-voice/feature/quests"
	"quest-voice/feature/tts"
	"quest-voice/feature/voicesync"

	"github.com/gofrs/flock"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ErrStorageDisabled is returned by checks that need object storage when none is configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// Config locates the local audio tree and its storage mirror.
type Config struct {
	OutputRoot     string
	LanguageCode   string
	AudioExtension string
	// IndexPath is where the audio index is saved after local deletions.
	IndexPath   string
	Bucket      string
	AudioPrefix string
	AddonPrefix string
}

// StructureReport lists missing storage folders and local directories.
type StructureReport struct {
	Status         string   `json:"status"`
	MissingStorage []string `json:"missing_storage"`
	MissingLocal   []string `json:"missing_local"`
}

// SyncReport is the outcome of an audio mirror sync.
type SyncReport struct {
	Plan     *reconcile.Plan `json:"plan"`
	Executed int             `json:"executed"`
	DryRun   bool            `json:"dry_run"`
}

// Service checks the audio output against the quest catalog and the storage mirror.
type Service struct {
	source quests.Source
	index  *audioindex.Index
	client storage.Client
	logger *zap.Logger
	cfg    Config
}

// NewService creates a new integrity service. client may be nil.
func NewService(source quests.Source, index *audioindex.Index, client storage.Client, logger *zap.Logger, cfg Config) *Service {
	return &Service{
		source: source,
		index:  index,
		client: client,
		logger: logger,
		cfg:    cfg,
	}
}

// StorageEnabled reports whether a storage client is configured.
func (s *Service) StorageEnabled() bool {
	return s.client != nil
}

// CheckStructure reports missing storage folders and local directories.
// Storage folders are only checked when storage is configured.
func (s *Service) CheckStructure(ctx context.Context) (*StructureReport, error) {
	report := &StructureReport{Status: "checked", MissingStorage: []string{}}

	missingLocal, err := checks.CheckLayout(checks.RequiredDirs(s.cfg.OutputRoot, s.cfg.LanguageCode))
	if err != nil {
		return nil, err
	}
	report.MissingLocal = append([]string{}, missingLocal...)

	if s.client != nil {
		missing, err := checks.CheckStructure(ctx, s.client, s.cfg.Bucket, s.requiredPrefixes())
		if err != nil {
			return nil, err
		}
		report.MissingStorage = append(report.MissingStorage, missing...)
	}
	return report, nil
}

// FixStructure creates everything a report lists as missing.
func (s *Service) FixStructure(ctx context.Context, report *StructureReport) error {
	if err := checks.FixLayout(s.logger, report.MissingLocal); err != nil {
		return err
	}
	if len(report.MissingStorage) > 0 {
		if s.client == nil {
			return ErrStorageDisabled
		}
		if err := checks.FixStructure(ctx, s.client, s.cfg.Bucket, s.logger, report.MissingStorage); err != nil {
			return err
		}
	}
	report.Status = "fixed"
	return nil
}

func (s *Service) requiredPrefixes() []string {
	return checks.RequiredPrefixes(s.cfg.AudioPrefix, s.cfg.LanguageCode, s.cfg.AddonPrefix)
}

// CheckAudio reconciles catalog, local audio and the storage mirror without changing anything.
func (s *Service) CheckAudio(ctx context.Context) (*reconcile.Plan, error) {
	plan, _, err := s.plan(ctx, reconcile.Options{DryRun: true})
	return plan, err
}

// SyncAudio plans uploads and purges and executes them when opts are confirmed.
// Execution holds the output root lock so it cannot overlap an apply run.
func (s *Service) SyncAudio(ctx context.Context, opts reconcile.Options) (*SyncReport, error) {
	execute := opts.Confirmed && !opts.DryRun
	if execute {
		lock := flock.New(filepath.Join(s.cfg.OutputRoot, voicesync.LockFileName))
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return nil, voicesync.ErrLocked
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				s.logger.Warn("Failed to release output root lock", zap.Error(err))
			}
		}()
	}

	plan, m, err := s.plan(ctx, opts)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Plan: plan, DryRun: !execute}
	executed, err := reconcile.ApplyPlan(ctx, plan, m, opts)
	report.Executed = executed
	if m.indexDirty {
		if saveErr := s.index.Save(s.cfg.IndexPath); saveErr != nil {
			s.logger.Error("Failed to persist audio index", zap.Error(saveErr))
			if err == nil {
				err = saveErr
			}
		}
	}
	if err != nil {
		return report, err
	}

	s.logger.Info("Audio mirror sync finished",
		zap.Int("uploads", plan.Summary.UploadActions),
		zap.Int("purges", plan.Summary.PurgeActions),
		zap.Int("executed", executed),
		zap.Bool("dry_run", report.DryRun))
	return report, nil
}

func (s *Service) plan(ctx context.Context, opts reconcile.Options) (*reconcile.Plan, *audioMutator, error) {
	if s.client == nil {
		return nil, nil, ErrStorageDisabled
	}

	m := &audioMutator{s: s}
	src := reconcile.Sources{
		Catalog: func(ctx context.Context) (reconcile.KeySet, error) {
			list, err := s.source.Load(ctx)
			if err != nil {
				return nil, err
			}
			set := make(reconcile.KeySet, len(list)*len(audioindex.Genders))
			for _, q := range list {
				for _, g := range audioindex.Genders {
					set.Add(AudioKey(q.ID, g))
				}
			}
			return set, nil
		},
		Local: func(ctx context.Context) (reconcile.KeySet, error) {
			m.local = entriesByKey(s.index.Entries())
			return keySet(m.local), nil
		},
		Storage: func(ctx context.Context) (reconcile.KeySet, error) {
			ix, err := audioindex.BuildFromStorage(ctx, s.client, s.cfg.Bucket, s.cfg.AudioPrefix, s.cfg.LanguageCode, []string{s.cfg.AudioExtension})
			if err != nil {
				return nil, err
			}
			m.storage = entriesByKey(ix.Entries())
			return keySet(m.storage), nil
		},
		Less: lessAudioKey,
	}

	plan, err := reconcile.ReconcileWithPlan(ctx, src, opts)
	if err != nil {
		return nil, nil, err
	}
	return plan, m, nil
}

// AudioKey is the reconcile key of one audio file: <quest id>/<gender>.
func AudioKey(questID int, gender audioindex.Gender) string {
	return strconv.Itoa(questID) + "/" + string(gender)
}

// ParseAudioKey splits a key built by AudioKey.
func ParseAudioKey(key string) (int, audioindex.Gender, error) {
	idPart, genderPart, ok := strings.Cut(key, "/")
	if !ok {
		return 0, "", fmt.Errorf("invalid audio key %q", key)
	}
	id, err := strconv.Atoi(idPart)
	if err != nil || id <= 0 || strconv.Itoa(id) != idPart {
		return 0, "", fmt.Errorf("invalid audio key %q", key)
	}
	gender, err := audioindex.ParseGender(genderPart)
	if err != nil {
		return 0, "", err
	}
	return id, gender, nil
}

func lessAudioKey(a, b string) bool {
	ia, ga, errA := ParseAudioKey(a)
	ib, gb, errB := ParseAudioKey(b)
	if errA != nil || errB != nil {
		return a < b
	}
	if ia != ib {
		return ia < ib
	}
	return ga > gb // male before female
}

func entriesByKey(entries []audioindex.Entry) map[string]audioindex.Entry {
	out := make(map[string]audioindex.Entry, len(entries))
	for _, e := range entries {
		out[AudioKey(e.QuestID, e.Gender)] = e
	}
	return out
}

func keySet(entries map[string]audioindex.Entry) reconcile.KeySet {
	set := make(reconcile.KeySet, len(entries))
	for key := range entries {
		set.Add(key)
	}
	return set
}

// audioMutator executes reconcile actions against the local tree and the bucket.
type audioMutator struct {
	s          *Service
	local      map[string]audioindex.Entry
	storage    map[string]audioindex.Entry
	indexDirty bool
}

// Upload copies a local file to the key mirroring its path under the audio root.
func (m *audioMutator) Upload(ctx context.Context, key string) error {
	entry, ok := m.local[key]
	if !ok {
		return fmt.Errorf("no local file for %s", key)
	}
	base := filepath.Join(m.s.cfg.OutputRoot, "audio", m.s.cfg.LanguageCode)
	rel, err := filepath.Rel(base, entry.Path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s is outside the audio root", entry.Path)
	}
	objectKey := path.Join(m.s.cfg.AudioPrefix, m.s.cfg.LanguageCode, filepath.ToSlash(rel))

	f, err := os.Open(entry.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	_, err = m.s.client.PutObject(ctx, m.s.cfg.Bucket, objectKey, f, info.Size(), minio.PutObjectOptions{
		ContentType: tts.ContentType(filepath.Ext(entry.Path)),
	})
	if err != nil {
		return err
	}
	m.s.logger.Debug("Uploaded audio", zap.String("key", objectKey))
	return nil
}

// DeleteStorage removes the mirrored object of a key.
func (m *audioMutator) DeleteStorage(ctx context.Context, key string) error {
	entry, ok := m.storage[key]
	if !ok {
		return fmt.Errorf("no storage object for %s", key)
	}
	if err := m.s.client.RemoveObject(ctx, m.s.cfg.Bucket, entry.Path, minio.RemoveObjectOptions{}); err != nil {
		return err
	}
	m.s.logger.Debug("Removed audio object", zap.String("key", entry.Path))
	return nil
}

// DeleteLocal removes a local file and drops it from the audio index.
func (m *audioMutator) DeleteLocal(ctx context.Context, key string) error {
	entry, ok := m.local[key]
	if !ok {
		return fmt.Errorf("no local file for %s", key)
	}
	if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	if m.s.index.Remove(entry.QuestID, entry.Gender) {
		m.indexDirty = true
	}
	m.s.logger.Debug("Removed local audio", zap.String("path", entry.Path))
	return nil
}
