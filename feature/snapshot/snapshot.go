package snapshot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"quest-voice/core/fingerprint"
	"quest-voice/feature/quests"

	"gorm.io/gorm"
)

// Kind records how a snapshot set was created.
type Kind string

const (
	KindInitial Kind = "initial"
	KindApply   Kind = "apply"
)

// Backend names accepted by NewStore.
const (
	BackendFile     = "file"
	BackendDatabase = "database"
)

var (
	// ErrVersionExists is returned when a data version was already written.
	ErrVersionExists = errors.New("data version already exists")
	// ErrInvalidVersion is returned for data versions unusable as identifiers.
	ErrInvalidVersion = errors.New("invalid data version")
)

var versionPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// StorageError wraps a failure to read or write snapshot data.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("snapshot %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Entry is the stored state of one quest.
type Entry struct {
	Fingerprint string    `json:"fingerprint"`
	Zone        string    `json:"zone"`
	Timestamp   time.Time `json:"timestamp"`
}

// Set is one immutable baseline of quest fingerprints.
type Set struct {
	DataVersion        string
	QuestCount         int
	CreatedAt          time.Time
	Kind               Kind
	TextOrder          quests.TextOrder
	FingerprintVersion string
	Entries            map[int]Entry
}

// Lookup returns the stored entry of a quest.
func (s *Set) Lookup(questID int) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	e, ok := s.Entries[questID]
	return e, ok
}

// Info returns the set header.
func (s *Set) Info(active bool) SetInfo {
	return SetInfo{
		DataVersion: s.DataVersion,
		QuestCount:  s.QuestCount,
		CreatedAt:   s.CreatedAt,
		Kind:        s.Kind,
		Active:      active,
	}
}

// SetInfo describes a stored set without its entries.
type SetInfo struct {
	DataVersion string    `json:"data_version"`
	QuestCount  int       `json:"quest_count"`
	CreatedAt   time.Time `json:"created_at"`
	Kind        Kind      `json:"kind"`
	Active      bool      `json:"active"`
}

// NewSet fingerprints the given quests into a set. Repeated IDs keep the last occurrence.
func NewSet(list []quests.Quest, dataVersion string, kind Kind, order quests.TextOrder) *Set {
	now := time.Now().UTC()
	set := &Set{
		DataVersion:        dataVersion,
		CreatedAt:          now,
		Kind:               kind,
		TextOrder:          order,
		FingerprintVersion: fingerprint.Version,
		Entries:            make(map[int]Entry, len(list)),
	}
	for _, q := range list {
		set.Entries[q.ID] = Entry{
			Fingerprint: q.Fingerprint(order),
			Zone:        q.Zone,
			Timestamp:   now,
		}
	}
	set.QuestCount = len(set.Entries)
	return set
}

// ValidateVersion checks that a data version can be stored.
func ValidateVersion(v string) error {
	if v == pointerName || !versionPattern.MatchString(v) {
		return fmt.Errorf("%w: %q (letters, digits, '.', '_' and '-' only)", ErrInvalidVersion, v)
	}
	return nil
}

func validateSet(set *Set) error {
	if set == nil {
		return errors.New("nil snapshot set")
	}
	if err := ValidateVersion(set.DataVersion); err != nil {
		return err
	}
	if set.QuestCount != len(set.Entries) {
		set.QuestCount = len(set.Entries)
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now().UTC()
	}
	if set.FingerprintVersion == "" {
		set.FingerprintVersion = fingerprint.Version
	}
	return nil
}

// Store persists snapshot sets and the pointer to the active baseline.
type Store interface {
	// LoadLast returns the active baseline, or nil when none exists yet.
	LoadLast(ctx context.Context) (*Set, error)
	// Save fingerprints the quests and publishes them as the new baseline.
	Save(ctx context.Context, list []quests.Quest, dataVersion string) (*Set, error)
	// SaveEntries writes a prepared set and publishes it as the new baseline.
	SaveEntries(ctx context.Context, set *Set) error
	// CreateInitial adopts the catalog as baseline without any voicing.
	CreateInitial(ctx context.Context, list []quests.Quest, buildTag string) (*Set, error)
	// List returns every stored set, newest first.
	List(ctx context.Context) ([]SetInfo, error)
}

// NewStore creates the store for the configured backend.
func NewStore(ctx context.Context, backend, outputRoot string, db *gorm.DB, order quests.TextOrder) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(outputRoot, order), nil
	case BackendDatabase:
		if db == nil {
			return nil, errors.New("database snapshot backend requires a database connection")
		}
		store := NewDBStore(db, order)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported snapshot backend: %s", backend)
	}
}
