package voicesync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"quest-voice/core/storage"
	"quest-voice/feature/audioindex"
	"quest-voice/feature/progress"
	"quest-voice/feature/quests"
	"quest-voice/feature/snapshot"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LockFileName is the cross-process apply lock under the output root.
const LockFileName = ".questvoice.lock"

// Audio sources for progress queries.
const (
	SourceLocal   = "local"
	SourceStorage = "storage"
)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	OutputRoot         string
	LanguageCode       string
	AudioExtension     string
	RequireBothGenders bool
	// Bucket and AudioPrefix locate the mirrored audio tree in object storage.
	Bucket      string
	AudioPrefix string
	// StorageIndexTTL caches storage-built indices. Zero disables caching.
	StorageIndexTTL time.Duration
}

// Status is the observable state of the service.
type Status struct {
	State     State        `json:"state"`
	Running   bool         `json:"running"`
	RunID     string       `json:"run_id,omitempty"`
	Progress  *Progress    `json:"progress,omitempty"`
	LastScan  *ScanResult  `json:"last_scan,omitempty"`
	LastApply *ApplyResult `json:"last_apply,omitempty"`
}

// ProgressReport combines the catalog totals and per-zone rollups.
type ProgressReport struct {
	Source string                  `json:"source"`
	Totals progress.TotalStats     `json:"totals"`
	Zones  []progress.ZoneProgress `json:"zones"`
}

// Service owns one orchestrator and serializes runs against it.
type Service struct {
	orch   *Orchestrator
	source quests.Source
	store  snapshot.Store
	client storage.Client
	cache  *audioindex.Cache
	logger *zap.Logger
	cfg    ServiceConfig
	lock   *flock.Flock

	mu        sync.Mutex
	running   bool
	runID     string
	cancel    context.CancelFunc
	done      chan struct{}
	current   *Progress
	lastScan  *ScanResult
	lastApply *ApplyResult
}

// NewService creates a service. client may be nil when no storage mirror is configured.
func NewService(orch *Orchestrator, source quests.Source, store snapshot.Store, client storage.Client, logger *zap.Logger, cfg ServiceConfig) *Service {
	return &Service{
		orch:   orch,
		source: source,
		store:  store,
		client: client,
		cache:  audioindex.NewCache(cfg.StorageIndexTTL),
		logger: logger,
		cfg:    cfg,
		lock:   flock.New(filepath.Join(cfg.OutputRoot, LockFileName)),
	}
}

// Orchestrator returns the underlying orchestrator.
func (s *Service) Orchestrator() *Orchestrator {
	return s.orch
}

// begin marks the service busy. It fails when a run is active.
func (s *Service) begin(runID string, cancel context.CancelFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunInProgress
	}
	s.running = true
	s.runID = runID
	s.cancel = cancel
	s.current = nil
	s.done = make(chan struct{})
	return nil
}

func (s *Service) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.runID = ""
	s.cancel = nil
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
}

func (s *Service) track(p Progress) {
	s.mu.Lock()
	s.current = &p
	s.mu.Unlock()
}

// acquireLock takes the output root lock without blocking.
func (s *Service) acquireLock() error {
	if err := os.MkdirAll(s.cfg.OutputRoot, 0o755); err != nil {
		return fmt.Errorf("create output root: %w", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

func (s *Service) releaseLock() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("Failed to release output root lock", zap.Error(err))
	}
}

// Scan loads the catalog and classifies it against the last snapshot.
func (s *Service) Scan(ctx context.Context, progressFn ProgressFunc) (*ScanResult, error) {
	if err := s.begin("", nil); err != nil {
		return nil, err
	}
	defer s.end()

	list, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load quests: %w", err)
	}

	result := s.orch.Scan(ctx, list, func(p Progress) {
		s.track(p)
		if progressFn != nil {
			progressFn(p)
		}
	})

	s.mu.Lock()
	s.lastScan = result
	s.mu.Unlock()
	return result, nil
}

// Apply runs an apply against the last scan and blocks until it ends.
func (s *Service) Apply(ctx context.Context, opts ApplyOptions, progressFn ProgressFunc) (*ApplyResult, error) {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := s.begin(opts.RunID, cancel); err != nil {
		return nil, err
	}
	defer s.end()
	return s.runApply(ctx, opts, progressFn)
}

// StartApply launches an apply in the background and returns its run ID.
// The last scan must still be pending; a scan that was already applied is refused.
func (s *Service) StartApply(opts ApplyOptions) (string, error) {
	if opts.DataVersion != "" {
		if err := snapshot.ValidateVersion(opts.DataVersion); err != nil {
			return "", err
		}
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.begin(opts.RunID, cancel); err != nil {
		cancel()
		return "", err
	}
	s.mu.Lock()
	scan := s.lastScan
	s.mu.Unlock()
	if err := s.orch.CheckApplicable(scan); err != nil {
		s.end()
		cancel()
		return "", err
	}

	go func() {
		defer s.end()
		defer cancel()
		if _, err := s.runApply(ctx, opts, nil); err != nil {
			s.logger.Error("Background apply failed", zap.String("run_id", opts.RunID), zap.Error(err))
		}
	}()
	return opts.RunID, nil
}

func (s *Service) runApply(ctx context.Context, opts ApplyOptions, progressFn ProgressFunc) (*ApplyResult, error) {
	s.mu.Lock()
	scan := s.lastScan
	s.mu.Unlock()
	if err := s.orch.CheckApplicable(scan); err != nil {
		return nil, err
	}

	if err := s.acquireLock(); err != nil {
		return nil, err
	}
	defer s.releaseLock()

	result := s.orch.Apply(ctx, scan, opts, func(p Progress) {
		s.track(p)
		if progressFn != nil {
			progressFn(p)
		}
	})

	if !result.Rejected {
		s.mu.Lock()
		s.lastApply = result
		s.mu.Unlock()
	}
	if len(result.SucceededQuests) > 0 {
		s.cache.Invalidate(s.storageCacheKey())
	}
	return result, nil
}

// Cancel requests cancellation of the active apply. It reports whether one was running.
func (s *Service) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

// Wait blocks until the active run ends or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the current run state and the last results.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		State:     s.orch.State(),
		Running:   s.running,
		RunID:     s.runID,
		LastScan:  s.lastScan,
		LastApply: s.lastApply,
	}
	if s.running && s.current != nil {
		p := *s.current
		st.Progress = &p
	}
	return st
}

// CreateInitialSnapshot adopts the current catalog as baseline without voicing anything.
func (s *Service) CreateInitialSnapshot(ctx context.Context, buildTag string) (*snapshot.Set, error) {
	if err := s.begin("", nil); err != nil {
		return nil, err
	}
	defer s.end()

	if err := s.acquireLock(); err != nil {
		return nil, err
	}
	defer s.releaseLock()

	list, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load quests: %w", err)
	}
	if buildTag == "" {
		buildTag = "initial-" + time.Now().UTC().Format("20060102T150405Z")
	}
	set, err := s.store.CreateInitial(ctx, list, buildTag)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Initial snapshot created",
		zap.String("data_version", set.DataVersion),
		zap.Int("quests", set.QuestCount))
	return set, nil
}

// ListSnapshots returns the stored snapshot versions, newest first.
func (s *Service) ListSnapshots(ctx context.Context) ([]snapshot.SetInfo, error) {
	return s.store.List(ctx)
}

// RebuildIndex rescans the audio tree and persists the result. It returns the entry count.
func (s *Service) RebuildIndex(ctx context.Context) (int, error) {
	if err := s.begin("", nil); err != nil {
		return 0, err
	}
	defer s.end()
	if err := s.acquireLock(); err != nil {
		return 0, err
	}
	defer s.releaseLock()

	start := time.Now()
	fresh, err := audioindex.BuildFromFilesystem(ctx, s.cfg.OutputRoot, s.cfg.LanguageCode, []string{s.cfg.AudioExtension})
	if err != nil {
		return 0, err
	}
	index := s.orch.Index()
	index.Replace(fresh)
	if path := s.orch.opts.IndexPath; path != "" {
		if err := index.Save(path); err != nil {
			return 0, err
		}
	}
	s.logger.Info("Audio index rebuilt", zap.Int("entries", index.Len()), zap.Duration("duration", time.Since(start)))
	return index.Len(), nil
}

func (s *Service) storageCacheKey() string {
	return s.cfg.Bucket + "|" + s.cfg.AudioPrefix + "|" + s.cfg.LanguageCode
}

// Lookup returns the audio presence source for progress queries.
func (s *Service) Lookup(ctx context.Context, source string) (progress.Lookup, error) {
	switch source {
	case "", SourceLocal:
		return s.orch.Index(), nil
	case SourceStorage:
		if s.client == nil {
			return nil, errors.New("storage is not configured")
		}
		return s.cache.GetOrBuild(ctx, s.storageCacheKey(), func(ctx context.Context) (*audioindex.Index, error) {
			return audioindex.BuildFromStorage(ctx, s.client, s.cfg.Bucket, s.cfg.AudioPrefix, s.cfg.LanguageCode, []string{s.cfg.AudioExtension})
		})
	default:
		return nil, fmt.Errorf("unknown audio source %q", source)
	}
}

// Progress computes totals and per-zone rollups against the chosen audio source.
func (s *Service) Progress(ctx context.Context, source string) (*ProgressReport, error) {
	list, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load quests: %w", err)
	}
	lookup, err := s.Lookup(ctx, source)
	if err != nil {
		return nil, err
	}
	if source == "" {
		source = SourceLocal
	}
	return &ProgressReport{
		Source: source,
		Totals: progress.CalculateTotalStats(list, lookup, s.cfg.RequireBothGenders),
		Zones:  progress.CalculateZoneProgress(list, lookup, s.cfg.RequireBothGenders),
	}, nil
}

// ZoneQuests lists the quests of a zone matching the filter.
func (s *Service) ZoneQuests(ctx context.Context, zone string, mode progress.FilterMode, source string) ([]quests.Quest, error) {
	list, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load quests: %w", err)
	}
	lookup, err := s.Lookup(ctx, source)
	if err != nil {
		return nil, err
	}
	return progress.FilteredQuestsForZone(zone, list, lookup, mode, s.cfg.RequireBothGenders), nil
}
