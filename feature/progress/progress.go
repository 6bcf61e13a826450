package progress

import (
	"fmt"
	"sort"
	"strings"

	"quest-voice/feature/quests"
)

// UnknownZone groups quests without a zone.
const UnknownZone = "Unknown"

// Lookup answers audio presence questions. *audioindex.Index satisfies it.
type Lookup interface {
	HasAnyAudio(questID int) bool
	HasBothGenders(questID int) bool
}

// FilterMode selects quests in FilteredQuestsForZone.
type FilterMode string

const (
	// MissingAudio selects quests that are not voiced.
	MissingAudio FilterMode = "missing"
	// ProblemQuestsOnly selects quests with incomplete translation.
	ProblemQuestsOnly FilterMode = "problem"
	// MissingAndProblem selects quests that are unvoiced or have incomplete translation.
	MissingAndProblem FilterMode = "missing_and_problem"
	// All selects every quest of the zone.
	All FilterMode = "all"
)

// ParseFilterMode validates a filter name. Empty selects All.
func ParseFilterMode(s string) (FilterMode, error) {
	switch m := FilterMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return All, nil
	case MissingAudio, ProblemQuestsOnly, MissingAndProblem, All:
		return m, nil
	default:
		return "", fmt.Errorf("unknown filter mode %q", s)
	}
}

// ZoneProgress is the voicing rollup of one zone.
type ZoneProgress struct {
	Zone       string  `json:"zone"`
	Total      int     `json:"total"`
	Voiced     int     `json:"voiced"`
	Missing    int     `json:"missing"`
	Problem    int     `json:"problem"`
	MainTotal  int     `json:"main_total"`
	MainVoiced int     `json:"main_voiced"`
	Percent    float64 `json:"percent"`
}

// TotalStats is the voicing rollup of the whole catalog.
type TotalStats struct {
	Total      int     `json:"total"`
	Voiced     int     `json:"voiced"`
	Missing    int     `json:"missing"`
	Problem    int     `json:"problem"`
	MainTotal  int     `json:"main_total"`
	MainVoiced int     `json:"main_voiced"`
	Percent    float64 `json:"percent"`
	ZoneCount  int     `json:"zone_count"`
}

// ZoneName returns the grouping zone of a quest.
func ZoneName(q quests.Quest) string {
	if z := strings.TrimSpace(q.Zone); z != "" {
		return z
	}
	return UnknownZone
}

// IsVoiced applies the voicing rule: both genders when required, otherwise any.
func IsVoiced(lookup Lookup, questID int, requireBothGenders bool) bool {
	if lookup == nil {
		return false
	}
	if requireBothGenders {
		return lookup.HasBothGenders(questID)
	}
	return lookup.HasAnyAudio(questID)
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}

// unique drops repeated IDs, keeping the last occurrence, in ascending ID order.
func unique(list []quests.Quest) []quests.Quest {
	byID := quests.ByID(list)
	out := make([]quests.Quest, 0, len(byID))
	for _, q := range byID {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type counter struct {
	total, voiced, problem, mainTotal, mainVoiced int
}

func (c *counter) add(q quests.Quest, voiced bool) {
	c.total++
	if voiced {
		c.voiced++
	}
	if q.IsProblem() {
		c.problem++
	}
	if q.IsMainStory() {
		c.mainTotal++
		if voiced {
			c.mainVoiced++
		}
	}
}

// CalculateZoneProgress rolls up voicing per zone, sorted by zone name.
func CalculateZoneProgress(list []quests.Quest, lookup Lookup, requireBothGenders bool) []ZoneProgress {
	zones := make(map[string]*counter)
	for _, q := range unique(list) {
		name := ZoneName(q)
		c, ok := zones[name]
		if !ok {
			c = &counter{}
			zones[name] = c
		}
		c.add(q, IsVoiced(lookup, q.ID, requireBothGenders))
	}

	out := make([]ZoneProgress, 0, len(zones))
	for name, c := range zones {
		out = append(out, ZoneProgress{
			Zone:       name,
			Total:      c.total,
			Voiced:     c.voiced,
			Missing:    c.total - c.voiced,
			Problem:    c.problem,
			MainTotal:  c.mainTotal,
			MainVoiced: c.mainVoiced,
			Percent:    percent(c.voiced, c.total),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Zone < out[j].Zone })
	return out
}

// CalculateTotalStats rolls up voicing across the catalog.
func CalculateTotalStats(list []quests.Quest, lookup Lookup, requireBothGenders bool) TotalStats {
	var c counter
	zones := make(map[string]struct{})
	for _, q := range unique(list) {
		zones[ZoneName(q)] = struct{}{}
		c.add(q, IsVoiced(lookup, q.ID, requireBothGenders))
	}
	return TotalStats{
		Total:      c.total,
		Voiced:     c.voiced,
		Missing:    c.total - c.voiced,
		Problem:    c.problem,
		MainTotal:  c.mainTotal,
		MainVoiced: c.mainVoiced,
		Percent:    percent(c.voiced, c.total),
		ZoneCount:  len(zones),
	}
}

// FilteredQuestsForZone returns the zone's quests matching mode in ascending ID order.
func FilteredQuestsForZone(zone string, list []quests.Quest, lookup Lookup, mode FilterMode, requireBothGenders bool) []quests.Quest {
	var out []quests.Quest
	for _, q := range unique(list) {
		if ZoneName(q) != zone {
			continue
		}
		missing := !IsVoiced(lookup, q.ID, requireBothGenders)
		var keep bool
		switch mode {
		case MissingAudio:
			keep = missing
		case ProblemQuestsOnly:
			keep = q.IsProblem()
		case MissingAndProblem:
			keep = missing || q.IsProblem()
		default:
			keep = true
		}
		if keep {
			out = append(out, q)
		}
	}
	return out
}
