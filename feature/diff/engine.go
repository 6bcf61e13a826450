package diff

import (
	"fmt"
	"sort"

	"quest-voice/feature/quests"
	"quest-voice/feature/snapshot"
)

// Compute classifies the current quests against the last baseline.
//
// A nil or empty baseline classifies every quest as new. When the current list
// repeats an ID, the last occurrence is used. Entries are sorted by QuestID so
// identical inputs always produce identical output.
func Compute(current []quests.Quest, last *snapshot.Set, order quests.TextOrder) *Result {
	byID := quests.ByID(current)

	var baseline map[int]snapshot.Entry
	result := &Result{}
	if last != nil {
		baseline = last.Entries
		result.BaselineVersion = last.DataVersion
	}

	union := buildUnion(byID, baseline)
	result.Entries = make([]Entry, 0, len(union))
	for id := range union {
		result.Entries = append(result.Entries, buildEntry(id, byID, baseline, order))
	}

	sort.Slice(result.Entries, func(i, j int) bool {
		return result.Entries[i].QuestID < result.Entries[j].QuestID
	})

	for _, e := range result.Entries {
		switch e.Type {
		case TypeNew:
			result.NewCount++
		case TypeChanged:
			result.ChangedCount++
		case TypeRemoved:
			result.RemovedCount++
		case TypeUnchanged:
			result.UnchangedCount++
		}
	}
	result.ToVoiceCount = result.NewCount + result.ChangedCount
	result.Summary = summarize(result)
	return result
}

// buildUnion returns every quest ID present in either source.
func buildUnion(current map[int]quests.Quest, baseline map[int]snapshot.Entry) map[int]struct{} {
	union := make(map[int]struct{}, len(current)+len(baseline))
	for id := range current {
		union[id] = struct{}{}
	}
	for id := range baseline {
		union[id] = struct{}{}
	}
	return union
}

// buildEntry classifies a single ID.
func buildEntry(id int, current map[int]quests.Quest, baseline map[int]snapshot.Entry, order quests.TextOrder) Entry {
	q, inCurrent := current[id]
	prev, inBaseline := baseline[id]

	if !inCurrent {
		return Entry{
			QuestID:             id,
			Type:                TypeRemoved,
			Zone:                prev.Zone,
			PreviousFingerprint: prev.Fingerprint,
		}
	}

	entry := Entry{
		QuestID:     id,
		Zone:        q.Zone,
		Title:       q.Title,
		Fingerprint: q.Fingerprint(order),
	}
	switch {
	case !inBaseline:
		entry.Type = TypeNew
	case prev.Fingerprint != entry.Fingerprint:
		entry.Type = TypeChanged
		entry.PreviousFingerprint = prev.Fingerprint
	default:
		entry.Type = TypeUnchanged
		entry.PreviousFingerprint = prev.Fingerprint
	}
	return entry
}

func summarize(r *Result) string {
	if len(r.Entries) == 0 {
		return "No quests to compare"
	}
	s := fmt.Sprintf("%d new, %d changed, %d removed, %d unchanged (%d to voice)",
		r.NewCount, r.ChangedCount, r.RemovedCount, r.UnchangedCount, r.ToVoiceCount)
	if r.BaselineVersion == "" {
		s += "; no baseline"
	} else {
		s += "; baseline " + r.BaselineVersion
	}
	return s
}
