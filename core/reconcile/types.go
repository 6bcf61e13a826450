package reconcile

import (
	"context"
)

// KeySet is the set of keys one source holds.
type KeySet map[string]struct{}

// Add inserts a key.
func (s KeySet) Add(key string) {
	s[key] = struct{}{}
}

// Has reports whether the key is present.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// LoadFunc builds the key set of one source.
type LoadFunc func(ctx context.Context) (KeySet, error)

// Sources names the three loaders a reconciliation compares.
type Sources struct {
	// Catalog yields the keys that are expected to exist.
	Catalog LoadFunc
	// Local yields the keys present on local disk.
	Local LoadFunc
	// Storage yields the keys present in object storage.
	Storage LoadFunc
	// Less orders result keys. Nil means plain string order.
	Less func(a, b string) bool
}

// Sets holds the loaded key sets.
type Sets struct {
	Catalog KeySet
	Local   KeySet
	Storage KeySet
}

// Result represents the reconciliation status of a single key.
type Result struct {
	// Key is the unique identifier across all sources.
	Key string `json:"key"`
	// CatalogPresent indicates whether the key is expected by the catalog.
	CatalogPresent bool `json:"catalog_present"`
	// LocalPresent indicates whether the key exists on local disk.
	LocalPresent bool `json:"local_present"`
	// StoragePresent indicates whether the key exists in object storage.
	StoragePresent bool `json:"storage_present"`
}

// Complete reports whether the key is present everywhere.
func (r Result) Complete() bool {
	return r.CatalogPresent && r.LocalPresent && r.StoragePresent
}

// ActionType is the kind of a planned mutation.
type ActionType string

const (
	// ActionUploadStorage copies a local file into storage.
	ActionUploadStorage ActionType = "upload_storage"
	// ActionDeleteStorage removes an object from storage.
	ActionDeleteStorage ActionType = "delete_storage"
	// ActionDeleteLocal removes a local file.
	ActionDeleteLocal ActionType = "delete_local"
)

// Action is a single planned mutation.
type Action struct {
	Type   ActionType `json:"type"`
	Key    string     `json:"key"`
	Reason string     `json:"reason"`
}

// Options controls which actions a plan contains and whether they run.
type Options struct {
	// DryRun plans but never executes.
	DryRun bool
	// DoUpload plans uploads of local files missing from storage.
	DoUpload bool
	// DoPurge plans deletion of keys the catalog no longer expects.
	DoPurge bool
	// Confirmed must be set for ApplyPlan to execute anything.
	Confirmed bool
}

// PlanSummary aggregates a plan.
type PlanSummary struct {
	TotalItems     int `json:"total_items"`
	MissingLocal   int `json:"missing_local"`
	MissingStorage int `json:"missing_storage"`
	Orphaned       int `json:"orphaned"`
	UploadActions  int `json:"upload_actions"`
	PurgeActions   int `json:"purge_actions"`
}

// Plan holds the results of a reconciliation and the actions derived from them.
type Plan struct {
	Results []Result    `json:"results"`
	Actions []Action    `json:"actions"`
	Summary PlanSummary `json:"summary"`
}

// Mutator executes planned actions.
type Mutator interface {
	Upload(ctx context.Context, key string) error
	DeleteStorage(ctx context.Context, key string) error
	DeleteLocal(ctx context.Context, key string) error
}
