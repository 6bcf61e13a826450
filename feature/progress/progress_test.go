package progress

import (
	"testing"

	"quest-voice/feature/quests"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup map[int]int

func (f fakeLookup) HasAnyAudio(id int) bool    { return f[id] >= 1 }
func (f fakeLookup) HasBothGenders(id int) bool { return f[id] >= 2 }

func catalog() []quests.Quest {
	return []quests.Quest{
		{ID: 4, Zone: "Westfall", Category: quests.CategorySide},
		{ID: 1, Zone: "Elwynn", Category: quests.CategoryMain},
		{ID: 2, Zone: "Elwynn", Category: quests.CategoryMain, IncompleteTranslation: true},
		{ID: 3, Zone: "Elwynn", Category: quests.CategorySide},
		{ID: 5, Zone: "", Category: quests.CategoryDaily, IncompleteTranslation: true},
	}
}

// quest 1: both genders, quest 2: one gender, quest 4: both genders.
var audio = fakeLookup{1: 2, 2: 1, 4: 2}

func TestCalculateZoneProgress(t *testing.T) {
	got := CalculateZoneProgress(catalog(), audio, false)
	require.Len(t, got, 3)

	assert.Equal(t, ZoneProgress{
		Zone: "Elwynn", Total: 3, Voiced: 2, Missing: 1, Problem: 1,
		MainTotal: 2, MainVoiced: 2, Percent: 200.0 / 3,
	}, got[0])
	assert.Equal(t, "Unknown", got[1].Zone)
	assert.Equal(t, 1, got[1].Missing)
	assert.Equal(t, "Westfall", got[2].Zone)
	assert.Equal(t, float64(100), got[2].Percent)

	strict := CalculateZoneProgress(catalog(), audio, true)
	assert.Equal(t, 1, strict[0].Voiced)
	assert.Equal(t, 1, strict[0].MainVoiced)
}

func TestCalculateTotalStats(t *testing.T) {
	got := CalculateTotalStats(catalog(), audio, false)
	assert.Equal(t, TotalStats{
		Total: 5, Voiced: 3, Missing: 2, Problem: 2,
		MainTotal: 2, MainVoiced: 2, Percent: 60, ZoneCount: 3,
	}, got)

	strict := CalculateTotalStats(catalog(), audio, true)
	assert.Equal(t, 2, strict.Voiced)

	empty := CalculateTotalStats(nil, audio, false)
	assert.Equal(t, TotalStats{}, empty)

	noAudio := CalculateTotalStats(catalog(), nil, false)
	assert.Equal(t, 0, noAudio.Voiced)
}

func TestFilteredQuestsForZone(t *testing.T) {
	ids := func(list []quests.Quest) []int {
		out := []int{}
		for _, q := range list {
			out = append(out, q.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		zone   string
		mode   FilterMode
		strict bool
		want   []int
	}{
		{"All", "Elwynn", All, false, []int{1, 2, 3}},
		{"Missing", "Elwynn", MissingAudio, false, []int{3}},
		{"MissingStrict", "Elwynn", MissingAudio, true, []int{2, 3}},
		{"Problem", "Elwynn", ProblemQuestsOnly, false, []int{2}},
		{"MissingAndProblem", "Elwynn", MissingAndProblem, false, []int{2, 3}},
		{"UnknownZone", "Unknown", All, false, []int{5}},
		{"NoSuchZone", "Durotar", All, false, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilteredQuestsForZone(tt.zone, catalog(), audio, tt.mode, tt.strict)))
		})
	}
}

func TestPureFunctions(t *testing.T) {
	list := catalog()
	before := append([]quests.Quest(nil), list...)
	_ = CalculateZoneProgress(list, audio, false)
	_ = FilteredQuestsForZone("Elwynn", list, audio, All, false)
	assert.Equal(t, before, list, "inputs are not reordered")
}

func TestDuplicateIDsCountedOnce(t *testing.T) {
	list := append(catalog(), quests.Quest{ID: 1, Zone: "Elwynn", Category: quests.CategoryMain})
	assert.Equal(t, 5, CalculateTotalStats(list, audio, false).Total)
}

func TestParseFilterMode(t *testing.T) {
	m, err := ParseFilterMode("")
	require.NoError(t, err)
	assert.Equal(t, All, m)
	m, err = ParseFilterMode("Missing_And_Problem")
	require.NoError(t, err)
	assert.Equal(t, MissingAndProblem, m)
	_, err = ParseFilterMode("voiced")
	assert.Error(t, err)
}
