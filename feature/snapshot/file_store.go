package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"quest-voice/core/utils"
	"quest-voice/feature/quests"

	"github.com/goccy/go-json"
)

const pointerName = "last"

// FileStore keeps sets as JSON files under <root>/snapshots.
type FileStore struct {
	dir   string
	order quests.TextOrder
	mu    sync.Mutex
}

// NewFileStore creates a file store rooted at the output directory.
func NewFileStore(outputRoot string, order quests.TextOrder) *FileStore {
	return &FileStore{
		dir:   filepath.Join(outputRoot, "snapshots"),
		order: order,
	}
}

// Dir returns the snapshot directory.
func (s *FileStore) Dir() string {
	return s.dir
}

type fileEntry struct {
	QuestID     *int      `json:"quest_id,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Hash        string    `json:"hash,omitempty"`
	Zone        string    `json:"zone"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e fileEntry) toEntry() Entry {
	fp := e.Fingerprint
	if fp == "" {
		fp = e.Hash
	}
	return Entry{Fingerprint: fp, Zone: e.Zone, Timestamp: e.Timestamp}
}

type fileSet struct {
	DataVersion        string          `json:"data_version"`
	QuestCount         int             `json:"quest_count"`
	CreatedAt          time.Time       `json:"created_at"`
	Kind               Kind            `json:"kind"`
	TextOrder          string          `json:"text_order,omitempty"`
	FingerprintVersion string          `json:"fingerprint_version,omitempty"`
	Entries            json.RawMessage `json:"entries"`
}

type filePointer struct {
	DataVersion string    `json:"data_version"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *FileStore) setPath(version string) string {
	return filepath.Join(s.dir, version+".json")
}

func (s *FileStore) pointerPath() string {
	return filepath.Join(s.dir, pointerName+".json")
}

// LoadLast reads the set referenced by last.json.
func (s *FileStore) LoadLast(ctx context.Context) (*Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.pointerPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("load pointer", err)
	}
	var ptr filePointer
	if err := json.Unmarshal(data, &ptr); err != nil {
		return nil, storageErr("decode pointer", err)
	}
	if err := ValidateVersion(ptr.DataVersion); err != nil {
		return nil, storageErr("decode pointer", err)
	}
	return s.readSet(ptr.DataVersion)
}

func (s *FileStore) readSet(version string) (*Set, error) {
	data, err := os.ReadFile(s.setPath(version))
	if err != nil {
		return nil, storageErr("load "+version, err)
	}
	set, err := decodeSet(data)
	if err != nil {
		return nil, storageErr("decode "+version, err)
	}
	return set, nil
}

// decodeSet accepts the current layout (entries keyed by quest ID) and the
// legacy one (an entry array carrying quest_id and hash).
func decodeSet(data []byte) (*Set, error) {
	var raw fileSet
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	set := &Set{
		DataVersion:        raw.DataVersion,
		CreatedAt:          raw.CreatedAt,
		Kind:               raw.Kind,
		TextOrder:          quests.TextOrder(raw.TextOrder),
		FingerprintVersion: raw.FingerprintVersion,
		Entries:            make(map[int]Entry),
	}
	if set.TextOrder == "" {
		set.TextOrder = quests.DefaultTextOrder
	}

	trimmed := strings.TrimSpace(string(raw.Entries))
	switch {
	case trimmed == "" || trimmed == "null":
	case strings.HasPrefix(trimmed, "["):
		var list []fileEntry
		if err := json.Unmarshal(raw.Entries, &list); err != nil {
			return nil, err
		}
		for _, e := range list {
			if e.QuestID == nil {
				return nil, errors.New("legacy entry without quest_id")
			}
			set.Entries[*e.QuestID] = e.toEntry()
		}
	default:
		var byID map[string]fileEntry
		if err := json.Unmarshal(raw.Entries, &byID); err != nil {
			return nil, err
		}
		for key, e := range byID {
			id, err := strconv.Atoi(key)
			if err != nil {
				return nil, errors.New("invalid quest id key " + strconv.Quote(key))
			}
			set.Entries[id] = e.toEntry()
		}
	}
	set.QuestCount = len(set.Entries)
	return set, nil
}

func encodeSet(set *Set) ([]byte, error) {
	entries := make(map[string]fileEntry, len(set.Entries))
	for id, e := range set.Entries {
		entries[strconv.Itoa(id)] = fileEntry{Fingerprint: e.Fingerprint, Zone: e.Zone, Timestamp: e.Timestamp}
	}
	rawEntries, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(fileSet{
		DataVersion:        set.DataVersion,
		QuestCount:         set.QuestCount,
		CreatedAt:          set.CreatedAt,
		Kind:               set.Kind,
		TextOrder:          string(set.TextOrder),
		FingerprintVersion: set.FingerprintVersion,
		Entries:            rawEntries,
	}, "", "  ")
}

// SaveEntries writes the set file, then rewrites the pointer. The pointer never
// references a set that is not fully on disk.
func (s *FileStore) SaveEntries(ctx context.Context, set *Set) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateSet(set); err != nil {
		return storageErr("save", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return storageErr("save", err)
	}
	path := s.setPath(set.DataVersion)
	if _, err := os.Stat(path); err == nil {
		return storageErr("save "+set.DataVersion, ErrVersionExists)
	}

	data, err := encodeSet(set)
	if err != nil {
		return storageErr("encode "+set.DataVersion, err)
	}
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return storageErr("write "+set.DataVersion, err)
	}

	ptr, err := json.Marshal(filePointer{DataVersion: set.DataVersion, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return storageErr("encode pointer", err)
	}
	if err := utils.WriteFileAtomic(s.pointerPath(), ptr, 0o644); err != nil {
		return storageErr("publish "+set.DataVersion, err)
	}
	return nil
}

// Save fingerprints the quests and publishes them as an apply baseline.
func (s *FileStore) Save(ctx context.Context, list []quests.Quest, dataVersion string) (*Set, error) {
	set := NewSet(list, dataVersion, KindApply, s.order)
	if err := s.SaveEntries(ctx, set); err != nil {
		return nil, err
	}
	return set, nil
}

// CreateInitial adopts the catalog as baseline.
func (s *FileStore) CreateInitial(ctx context.Context, list []quests.Quest, buildTag string) (*Set, error) {
	set := NewSet(list, buildTag, KindInitial, s.order)
	if err := s.SaveEntries(ctx, set); err != nil {
		return nil, err
	}
	return set, nil
}

// List decodes every set file in the directory.
func (s *FileStore) List(ctx context.Context) ([]SetInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("list", err)
	}

	active := ""
	if data, err := os.ReadFile(s.pointerPath()); err == nil {
		var ptr filePointer
		if json.Unmarshal(data, &ptr) == nil {
			active = ptr.DataVersion
		}
	}

	var out []SetInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" || name == pointerName+".json" {
			continue
		}
		version := strings.TrimSuffix(name, ".json")
		set, err := s.readSet(version)
		if err != nil {
			return nil, err
		}
		out = append(out, set.Info(set.DataVersion == active))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].DataVersion > out[j].DataVersion
	})
	return out, nil
}
