package diff

import (
	"fmt"
	"strings"
)

// Type classifies a quest against the baseline.
type Type string

const (
	// TypeNew marks a quest absent from the baseline.
	TypeNew Type = "new"
	// TypeChanged marks a quest whose fingerprint differs from the baseline.
	TypeChanged Type = "changed"
	// TypeRemoved marks a baseline quest absent from the current catalog.
	TypeRemoved Type = "removed"
	// TypeUnchanged marks a quest whose fingerprint matches the baseline.
	TypeUnchanged Type = "unchanged"
)

// ParseType maps a user supplied name to a Type.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeNew, TypeChanged, TypeRemoved, TypeUnchanged:
		return t, nil
	default:
		return "", fmt.Errorf("unknown diff type %q", s)
	}
}

// NeedsVoicing reports whether entries of this type require regeneration.
func (t Type) NeedsVoicing() bool {
	return t == TypeNew || t == TypeChanged
}

// Entry is the classification of a single quest.
type Entry struct {
	// QuestID is the quest identifier.
	QuestID int `json:"quest_id"`

	// Type is the classification against the baseline.
	Type Type `json:"type"`

	// Zone is the current zone, or the baseline zone for removed quests.
	Zone string `json:"zone"`

	// Title is the current title. Empty for removed quests.
	Title string `json:"title,omitempty"`

	// Fingerprint is the current fingerprint. Empty for removed quests.
	Fingerprint string `json:"fingerprint,omitempty"`

	// PreviousFingerprint is the baseline fingerprint. Empty for new quests.
	PreviousFingerprint string `json:"previous_fingerprint,omitempty"`
}

// Result is the immutable outcome of one diff computation.
type Result struct {
	// Entries holds one entry per quest in ascending QuestID order.
	Entries []Entry `json:"entries"`

	// NewCount counts quests absent from the baseline.
	NewCount int `json:"new_count"`

	// ChangedCount counts quests whose text changed.
	ChangedCount int `json:"changed_count"`

	// RemovedCount counts baseline quests no longer present.
	RemovedCount int `json:"removed_count"`

	// UnchangedCount counts quests matching the baseline.
	UnchangedCount int `json:"unchanged_count"`

	// ToVoiceCount is NewCount + ChangedCount.
	ToVoiceCount int `json:"to_voice_count"`

	// BaselineVersion is the data version compared against, empty when none existed.
	BaselineVersion string `json:"baseline_version,omitempty"`

	// Summary is a human readable one-line description.
	Summary string `json:"summary"`
}

// Filter returns the entries of the given types, preserving order.
// Without arguments every entry is returned.
func (r *Result) Filter(types ...Type) []Entry {
	if r == nil {
		return nil
	}
	if len(types) == 0 {
		return append([]Entry(nil), r.Entries...)
	}
	want := make(map[Type]struct{}, len(types))
	for _, t := range types {
		want[t] = struct{}{}
	}
	var out []Entry
	for _, e := range r.Entries {
		if _, ok := want[e.Type]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Get returns the entry of a quest.
func (r *Result) Get(questID int) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	lo, hi := 0, len(r.Entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if r.Entries[mid].QuestID < questID {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(r.Entries) && r.Entries[lo].QuestID == questID {
		return r.Entries[lo], true
	}
	return Entry{}, false
}
