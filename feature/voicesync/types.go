package voicesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quest-voice/feature/audioindex"
	"quest-voice/feature/diff"
	"quest-voice/feature/quests"
	"quest-voice/feature/snapshot"
)

// State is the orchestrator lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateScanning  State = "scanning"
	StateScanned   State = "scanned"
	StateApplying  State = "applying"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// IsTerminal reports whether the state ends a run.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Phase names the stage reported through progress callbacks.
type Phase string

const (
	PhaseScanning Phase = "Scanning"
	PhaseApplying Phase = "Applying"
)

// Progress is one progress notification.
type Progress struct {
	Phase      Phase   `json:"phase"`
	Message    string  `json:"message"`
	Percentage float64 `json:"percentage"`
}

// ProgressFunc receives progress notifications. It is called synchronously from the run.
type ProgressFunc func(Progress)

var (
	// ErrCancelled marks a run stopped by its context.
	ErrCancelled = errors.New("run cancelled")
	// ErrRunInProgress is returned when a scan or apply is already active.
	ErrRunInProgress = errors.New("a sync run is already in progress")
	// ErrNoScan is returned when apply is requested without a successful scan.
	ErrNoScan = errors.New("apply requires a successful scan")
	// ErrStaleScan is returned when the scan was already applied or superseded.
	ErrStaleScan = errors.New("scan result is stale; scan again")
	// ErrLocked is returned when another process holds the output root lock.
	ErrLocked = errors.New("output root is locked by another process")
)

// GenerationError is the failure of a single quest's regeneration.
type GenerationError struct {
	QuestID int
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("quest %d: %v", e.QuestID, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// GeneratedAudio describes one file written by a Generator.
type GeneratedAudio struct {
	Gender     audioindex.Gender
	Path       string
	ModifiedAt time.Time
}

// Generator synthesizes the audio of one quest. It should honor ctx.
// On error it returns the files it had already written, if any.
type Generator interface {
	Generate(ctx context.Context, quest quests.Quest, languageCode string) ([]GeneratedAudio, error)
}

// Exporter packages the generated audio for the game client.
type Exporter interface {
	Export(ctx context.Context) error
}

// ScanResult is the outcome of a scan.
type ScanResult struct {
	Success      bool          `json:"success"`
	Diff         *diff.Result  `json:"diff,omitempty"`
	Duration     time.Duration `json:"duration"`
	ErrorMessage string        `json:"error_message,omitempty"`
	ScannedAt    time.Time     `json:"scanned_at"`
	QuestCount   int           `json:"quest_count"`

	// Baseline is the set the diff was computed against, nil when none existed.
	Baseline *snapshot.Set `json:"-"`
	// Quests is the catalog the diff was computed from.
	Quests []quests.Quest `json:"-"`
}

// ApplyOptions controls an apply run.
type ApplyOptions struct {
	// OnlyNewAndChanged limits targets to new and changed quests. When false
	// every current quest is regenerated.
	OnlyNewAndChanged bool `json:"only_new_and_changed"`
	// AutoExportAddon runs the exporter after a completed run.
	AutoExportAddon bool `json:"auto_export_addon"`
	// QuestIDs, when set, restricts the targets to these quests.
	QuestIDs []int `json:"quest_ids,omitempty"`
	// DataVersion names the snapshot written on completion. Generated when empty.
	DataVersion string `json:"data_version,omitempty"`
	// RunID identifies the run. Generated when empty.
	RunID string `json:"-"`
}

// DefaultApplyOptions regenerates new and changed quests without exporting.
func DefaultApplyOptions() ApplyOptions {
	return ApplyOptions{OnlyNewAndChanged: true}
}

// QuestFailure is a failed quest of an apply run.
type QuestFailure struct {
	QuestID int    `json:"quest_id"`
	Error   string `json:"error"`
}

// ApplyResult is the outcome of an apply run.
type ApplyResult struct {
	RunID            string         `json:"run_id"`
	State            State          `json:"state"`
	Success          bool           `json:"success"`
	TargetCount      int            `json:"target_count"`
	FailedQuests     []QuestFailure `json:"failed_quests"`
	SucceededQuests  []int          `json:"succeeded_quests"`
	SnapshotSaved    bool           `json:"snapshot_saved"`
	SavedDataVersion string         `json:"saved_data_version,omitempty"`
	AddonExported    bool           `json:"addon_exported"`
	ExportError      string         `json:"export_error,omitempty"`
	Duration         time.Duration  `json:"duration"`
	Summary          string         `json:"summary"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	// Rejected marks a result that never started applying.
	Rejected bool `json:"rejected,omitempty"`
}
