package voicesync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"quest-voice/core/fingerprint"
	"quest-voice/core/logger"
	"quest-voice/feature/audioindex"
	"quest-voice/feature/diff"
	"quest-voice/feature/quests"
	"quest-voice/feature/snapshot"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures an Orchestrator.
type Options struct {
	// LanguageCode is passed to the generator.
	LanguageCode string
	// TextOrder is the fingerprint text resolution policy.
	TextOrder quests.TextOrder
	// Delay is the pause between two generations.
	Delay time.Duration
	// IndexPath is where the audio index is persisted after a run. Empty skips persistence.
	IndexPath string
}

// Orchestrator runs scan and apply cycles. One orchestrator handles one run at a time.
type Orchestrator struct {
	store     snapshot.Store
	index     *audioindex.Index
	generator Generator
	exporter  Exporter
	logger    *zap.Logger
	opts      Options

	mu    sync.Mutex
	state State
	scan  *ScanResult
}

// NewOrchestrator wires the orchestrator to its collaborators. exporter may be nil.
func NewOrchestrator(store snapshot.Store, index *audioindex.Index, generator Generator, exporter Exporter, logger *zap.Logger, opts Options) *Orchestrator {
	if opts.TextOrder == "" {
		opts.TextOrder = quests.DefaultTextOrder
	}
	return &Orchestrator{
		store:     store,
		index:     index,
		generator: generator,
		exporter:  exporter,
		logger:    logger,
		opts:      opts,
		state:     StateIdle,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// CheckApplicable reports whether scan is the pending result of the latest scan.
func (o *Orchestrator) CheckApplicable(scan *ScanResult) error {
	if scan == nil || !scan.Success || scan.Diff == nil {
		return ErrNoScan
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.applicableLocked(scan)
}

func (o *Orchestrator) applicableLocked(scan *ScanResult) error {
	if o.state != StateScanned {
		return fmt.Errorf("cannot apply in state %s: %w", o.state, ErrStaleScan)
	}
	if o.scan != scan {
		return ErrStaleScan
	}
	return nil
}

// Index returns the audio index the orchestrator patches.
func (o *Orchestrator) Index() *audioindex.Index {
	return o.index
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func report(progress ProgressFunc, phase Phase, message string, pct float64) {
	if progress == nil {
		return
	}
	progress(Progress{Phase: phase, Message: message, Percentage: pct})
}

// Scan classifies quests against the last baseline. Storage failures and panics
// are reported through the result, never returned or propagated.
func (o *Orchestrator) Scan(ctx context.Context, list []quests.Quest, progress ProgressFunc) (result *ScanResult) {
	start := time.Now()
	result = &ScanResult{ScannedAt: start.UTC()}

	o.mu.Lock()
	if o.state == StateScanning || o.state == StateApplying {
		o.mu.Unlock()
		result.ErrorMessage = ErrRunInProgress.Error()
		return result
	}
	o.state = StateScanning
	o.scan = nil
	o.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Scan panicked", zap.Any("panic", r))
			result.Success = false
			result.Diff = nil
			result.ErrorMessage = fmt.Sprintf("scan panicked: %v", r)
			o.setState(StateFailed)
		}
		result.Duration = time.Since(start)
	}()

	report(progress, PhaseScanning, "Loading last snapshot", 0)
	if err := ctx.Err(); err != nil {
		result.ErrorMessage = ErrCancelled.Error()
		o.setState(StateCancelled)
		return result
	}

	baseline, err := o.store.LoadLast(ctx)
	if err != nil {
		o.logger.Error("Failed to load snapshot", zap.Error(err))
		result.ErrorMessage = err.Error()
		if ctx.Err() != nil {
			result.ErrorMessage = ErrCancelled.Error()
			o.setState(StateCancelled)
			return result
		}
		o.setState(StateFailed)
		return result
	}
	if baseline != nil && baseline.TextOrder != "" && baseline.TextOrder != o.opts.TextOrder {
		o.logger.Warn("Baseline was fingerprinted with a different text order",
			zap.String("baseline", string(baseline.TextOrder)),
			zap.String("current", string(o.opts.TextOrder)))
	}

	report(progress, PhaseScanning, fmt.Sprintf("Comparing %d quests", len(list)), 50)
	d := diff.Compute(list, baseline, o.opts.TextOrder)

	result.Success = true
	result.Diff = d
	result.Baseline = baseline
	result.Quests = append([]quests.Quest(nil), list...)
	result.QuestCount = len(list)

	o.mu.Lock()
	o.state = StateScanned
	o.scan = result
	o.mu.Unlock()

	report(progress, PhaseScanning, d.Summary, 100)
	o.logger.Info("Scan complete",
		zap.Int("new", d.NewCount),
		zap.Int("changed", d.ChangedCount),
		zap.Int("removed", d.RemovedCount),
		zap.Int("unchanged", d.UnchangedCount),
		zap.Duration("duration", time.Since(start)))
	return result
}

// Apply regenerates the targets of a scan one quest at a time.
//
// Per-quest failures are collected and the batch continues. Cancellation stops
// before the next quest, keeps what was produced and skips the snapshot. On
// completion a new snapshot is written in which only succeeded quests carry
// their new fingerprint, so failed quests are retried on the next scan.
func (o *Orchestrator) Apply(ctx context.Context, scan *ScanResult, opts ApplyOptions, progress ProgressFunc) (result *ApplyResult) {
	start := time.Now()
	result = &ApplyResult{
		RunID:           opts.RunID,
		FailedQuests:    []QuestFailure{},
		SucceededQuests: []int{},
	}
	if result.RunID == "" {
		result.RunID = uuid.NewString()
	}
	log := logger.WithRun(o.logger, result.RunID)

	reject := func(err error) *ApplyResult {
		result.State = StateFailed
		result.Rejected = true
		result.ErrorMessage = err.Error()
		result.Summary = "Apply rejected: " + err.Error()
		result.Duration = time.Since(start)
		return result
	}

	if scan == nil || !scan.Success || scan.Diff == nil {
		return reject(ErrNoScan)
	}
	dataVersion := opts.DataVersion
	if dataVersion == "" {
		dataVersion = autoDataVersion(start)
	}
	if err := snapshot.ValidateVersion(dataVersion); err != nil {
		return reject(err)
	}

	o.mu.Lock()
	if err := o.applicableLocked(scan); err != nil {
		o.mu.Unlock()
		return reject(err)
	}
	o.state = StateApplying
	o.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Apply panicked", zap.Any("panic", r))
			result.State = StateFailed
			result.Success = false
			result.ErrorMessage = fmt.Sprintf("apply panicked: %v", r)
			result.Summary = summarize(result)
		}
		result.Duration = time.Since(start)
		o.setState(result.State)
	}()

	targets := SelectTargets(scan.Diff, opts)
	result.TargetCount = len(targets)
	byID := quests.ByID(scan.Quests)
	succeeded := make(map[int]bool, len(targets))

	log.Info("Apply started",
		zap.Int("targets", len(targets)),
		zap.Bool("only_new_and_changed", opts.OnlyNewAndChanged))
	if len(targets) == 0 {
		report(progress, PhaseApplying, "Nothing to voice", 100)
	}

	cancelled := false
	for i, entry := range targets {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		if i > 0 && o.opts.Delay > 0 {
			timer := time.NewTimer(o.opts.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				cancelled = true
			case <-timer.C:
			}
			if cancelled {
				break
			}
		}

		q := byID[entry.QuestID]
		audio, err := o.generate(ctx, q)
		// Files written before a failure exist on disk, so the index records them either way.
		o.indexAudio(q.ID, audio)
		if err != nil && ctx.Err() != nil {
			log.Info("Generation interrupted by cancellation", zap.Int("quest_id", q.ID))
			cancelled = true
			break
		}
		if err != nil {
			log.Warn("Quest generation failed", zap.Int("quest_id", q.ID), zap.Int("partial_files", len(audio)), zap.Error(err))
			result.FailedQuests = append(result.FailedQuests, QuestFailure{QuestID: q.ID, Error: err.Error()})
		} else {
			succeeded[q.ID] = true
			result.SucceededQuests = append(result.SucceededQuests, q.ID)
		}

		processed := i + 1
		report(progress, PhaseApplying,
			fmt.Sprintf("Quest %d (%d/%d)", q.ID, processed, len(targets)),
			float64(processed)*100/float64(len(targets)))
	}
	if !cancelled && ctx.Err() != nil {
		cancelled = true
	}

	if err := o.persistIndex(); err != nil {
		log.Error("Failed to persist audio index", zap.Error(err))
		result.State = StateFailed
		result.ErrorMessage = err.Error()
		result.Summary = summarize(result)
		return result
	}

	if cancelled {
		log.Info("Apply cancelled",
			zap.Int("succeeded", len(result.SucceededQuests)),
			zap.Int("failed", len(result.FailedQuests)))
		result.State = StateCancelled
		result.Summary = summarize(result)
		return result
	}

	next := buildNextSet(scan, succeeded, o.opts.TextOrder, dataVersion)
	if err := o.store.SaveEntries(ctx, next); err != nil {
		log.Error("Failed to save snapshot", zap.Error(err))
		result.State = StateFailed
		result.ErrorMessage = err.Error()
		result.Summary = summarize(result)
		return result
	}
	result.SnapshotSaved = true
	result.SavedDataVersion = next.DataVersion

	if opts.AutoExportAddon {
		if err := o.export(ctx); err != nil {
			log.Warn("Add-on export failed", zap.Error(err))
			result.ExportError = err.Error()
		} else {
			result.AddonExported = true
		}
	}

	result.State = StateCompleted
	result.Success = true
	result.Summary = summarize(result)
	log.Info("Apply completed",
		zap.Int("succeeded", len(result.SucceededQuests)),
		zap.Int("failed", len(result.FailedQuests)),
		zap.String("data_version", result.SavedDataVersion),
		zap.Duration("duration", time.Since(start)))
	return result
}

func (o *Orchestrator) indexAudio(questID int, audio []GeneratedAudio) {
	now := time.Now().UTC()
	for _, a := range audio {
		ts := a.ModifiedAt
		if ts.IsZero() {
			ts = now
		}
		o.index.Update(questID, a.Gender, a.Path, ts)
	}
}

// generate calls the generator, converting errors and panics into a GenerationError.
// Audio written before a generator error is returned alongside it.
func (o *Orchestrator) generate(ctx context.Context, q quests.Quest) (audio []GeneratedAudio, err error) {
	defer func() {
		if r := recover(); r != nil {
			audio = nil
			err = &GenerationError{QuestID: q.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if o.generator == nil {
		return nil, &GenerationError{QuestID: q.ID, Err: errors.New("no generator configured")}
	}
	audio, err = o.generator.Generate(ctx, q, o.opts.LanguageCode)
	if err != nil {
		var ge *GenerationError
		if errors.As(err, &ge) {
			return audio, err
		}
		return audio, &GenerationError{QuestID: q.ID, Err: err}
	}
	if len(audio) == 0 {
		return nil, &GenerationError{QuestID: q.ID, Err: errors.New("generator produced no audio")}
	}
	return audio, nil
}

func (o *Orchestrator) export(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("export panicked: %v", r)
		}
	}()
	if o.exporter == nil {
		return errors.New("no exporter configured")
	}
	return o.exporter.Export(ctx)
}

func (o *Orchestrator) persistIndex() error {
	if o.opts.IndexPath == "" {
		return nil
	}
	return o.index.Save(o.opts.IndexPath)
}

// SelectTargets picks the entries to regenerate, in diff order.
func SelectTargets(d *diff.Result, opts ApplyOptions) []diff.Entry {
	var only map[int]struct{}
	if len(opts.QuestIDs) > 0 {
		only = make(map[int]struct{}, len(opts.QuestIDs))
		for _, id := range opts.QuestIDs {
			only[id] = struct{}{}
		}
	}

	var out []diff.Entry
	for _, e := range d.Entries {
		if e.Type == diff.TypeRemoved {
			continue
		}
		if opts.OnlyNewAndChanged && !e.Type.NeedsVoicing() {
			continue
		}
		if only != nil {
			if _, ok := only[e.QuestID]; !ok {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// buildNextSet derives the baseline written after a completed run. Removed quests
// are dropped, succeeded quests take their current fingerprint and every other
// quest keeps its previous entry (or stays absent if it never had one).
func buildNextSet(scan *ScanResult, succeeded map[int]bool, order quests.TextOrder, dataVersion string) *snapshot.Set {
	now := time.Now().UTC()
	set := &snapshot.Set{
		DataVersion:        dataVersion,
		CreatedAt:          now,
		Kind:               snapshot.KindApply,
		TextOrder:          order,
		FingerprintVersion: fingerprint.Version,
		Entries:            make(map[int]snapshot.Entry, len(scan.Diff.Entries)),
	}
	for _, e := range scan.Diff.Entries {
		if e.Type == diff.TypeRemoved {
			continue
		}
		if succeeded[e.QuestID] {
			set.Entries[e.QuestID] = snapshot.Entry{Fingerprint: e.Fingerprint, Zone: e.Zone, Timestamp: now}
			continue
		}
		if prev, ok := scan.Baseline.Lookup(e.QuestID); ok {
			prev.Zone = e.Zone
			set.Entries[e.QuestID] = prev
		}
	}
	set.QuestCount = len(set.Entries)
	return set
}

func autoDataVersion(t time.Time) string {
	return "apply-" + t.UTC().Format("20060102T150405Z") + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func summarize(r *ApplyResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d succeeded, %d failed of %d targets",
		r.State, len(r.SucceededQuests), len(r.FailedQuests), r.TargetCount)
	if r.SnapshotSaved {
		fmt.Fprintf(&b, "; snapshot %s saved", r.SavedDataVersion)
	}
	if r.AddonExported {
		b.WriteString("; add-on exported")
	} else if r.ExportError != "" {
		b.WriteString("; add-on export failed")
	}
	return b.String()
}
