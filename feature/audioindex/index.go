package audioindex

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Gender selects the voice a file was generated with.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Genders lists every voice gender in layout order.
var Genders = []Gender{GenderMale, GenderFemale}

// ParseGender validates a gender name.
func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case GenderMale, GenderFemale:
		return g, nil
	default:
		return "", fmt.Errorf("unknown gender %q", s)
	}
}

// Key identifies one audio file.
type Key struct {
	QuestID int
	Gender  Gender
}

// Entry records a generated audio file.
type Entry struct {
	QuestID    int       `json:"quest_id"`
	Gender     Gender    `json:"gender"`
	Path       string    `json:"path"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Index is the presence table of generated audio. It is safe for concurrent
// readers while a single writer patches it.
type Index struct {
	mu       sync.RWMutex
	language string
	builtAt  time.Time
	entries  map[Key]Entry
}

// New returns an empty index for a language.
func New(languageCode string) *Index {
	return &Index{
		language: languageCode,
		builtAt:  time.Now().UTC(),
		entries:  make(map[Key]Entry),
	}
}

// Language returns the language code the index covers.
func (ix *Index) Language() string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.language
}

// BuiltAt returns when the index was last fully built.
func (ix *Index) BuiltAt() time.Time {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.builtAt
}

// Lookup returns the entry for a quest and gender. Absence means not yet voiced.
func (ix *Index) Lookup(questID int, gender Gender) (Entry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.entries[Key{QuestID: questID, Gender: gender}]
	return e, ok
}

// Update records a generated file, replacing any previous entry.
func (ix *Index) Update(questID int, gender Gender, path string, modifiedAt time.Time) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries[Key{QuestID: questID, Gender: gender}] = Entry{
		QuestID:    questID,
		Gender:     gender,
		Path:       path,
		ModifiedAt: modifiedAt.UTC(),
	}
}

// Remove drops an entry. It reports whether one existed.
func (ix *Index) Remove(questID int, gender Gender) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	key := Key{QuestID: questID, Gender: gender}
	_, ok := ix.entries[key]
	delete(ix.entries, key)
	return ok
}

// HasAnyAudio reports whether at least one gender exists for the quest.
func (ix *Index) HasAnyAudio(questID int) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, g := range Genders {
		if _, ok := ix.entries[Key{QuestID: questID, Gender: g}]; ok {
			return true
		}
	}
	return false
}

// HasBothGenders reports whether every gender exists for the quest.
func (ix *Index) HasBothGenders(questID int) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, g := range Genders {
		if _, ok := ix.entries[Key{QuestID: questID, Gender: g}]; !ok {
			return false
		}
	}
	return true
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Entries returns a copy of all entries ordered by quest ID, then gender.
func (ix *Index) Entries() []Entry {
	ix.mu.RLock()
	out := make([]Entry, 0, len(ix.entries))
	for _, e := range ix.entries {
		out = append(out, e)
	}
	ix.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].QuestID != out[j].QuestID {
			return out[i].QuestID < out[j].QuestID
		}
		return out[i].Gender > out[j].Gender
	})
	return out
}

// Replace swaps in the contents of a freshly built index.
func (ix *Index) Replace(other *Index) {
	if other == nil || other == ix {
		return
	}
	other.mu.RLock()
	entries := make(map[Key]Entry, len(other.entries))
	for k, v := range other.entries {
		entries[k] = v
	}
	language, builtAt := other.language, other.builtAt
	other.mu.RUnlock()

	ix.mu.Lock()
	ix.entries = entries
	ix.language = language
	ix.builtAt = builtAt
	ix.mu.Unlock()
}

// put keeps the most recently modified file when a quest appears under several zones.
func (ix *Index) put(e Entry) {
	key := Key{QuestID: e.QuestID, Gender: e.Gender}
	if prev, ok := ix.entries[key]; ok && prev.ModifiedAt.After(e.ModifiedAt) {
		return
	}
	ix.entries[key] = e
}
