package diff

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"quest-voice/feature/quests"
	"quest-voice/feature/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const order = quests.DefaultTextOrder

func snapshotOf(list []quests.Quest) *snapshot.Set {
	return snapshot.NewSet(list, "base", snapshot.KindInitial, order)
}

// randomQuests builds n quests with unique, unordered IDs.
func randomQuests(r *rand.Rand, n int) []quests.Quest {
	ids := r.Perm(n * 3)[:n]
	out := make([]quests.Quest, 0, n)
	for _, id := range ids {
		out = append(out, quests.Quest{
			ID:          id + 1,
			Title:       fmt.Sprintf("Quest %d", id),
			Description: fmt.Sprintf("desc %d", r.Intn(1000)),
			Completion:  fmt.Sprintf("done %d", r.Intn(5)),
			RewardText:  fmt.Sprintf("reward %d", r.Intn(5)),
			Zone:        []string{"Elwynn", "Westfall", "Duskwood"}[r.Intn(3)],
		})
	}
	return out
}

func assertSorted(t *testing.T, r *Result) {
	t.Helper()
	assert.True(t, sort.SliceIsSorted(r.Entries, func(i, j int) bool {
		return r.Entries[i].QuestID < r.Entries[j].QuestID
	}))
}

func TestCompute_NoBaselineAllNew(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 7, 50} {
		q := randomQuests(r, n)
		res := Compute(q, nil, order)
		assert.Equal(t, n, res.NewCount)
		assert.Equal(t, n, res.ToVoiceCount)
		assert.Zero(t, res.ChangedCount+res.RemovedCount+res.UnchangedCount)
		assertSorted(t, res)
	}

	empty := &snapshot.Set{DataVersion: "empty", Entries: map[int]snapshot.Entry{}}
	res := Compute(randomQuests(r, 5), empty, order)
	assert.Equal(t, 5, res.NewCount)
	assert.Equal(t, "empty", res.BaselineVersion)
}

func TestCompute_Idempotent(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 10; i++ {
		q := randomQuests(r, 20)
		res := Compute(q, snapshotOf(q), order)
		assert.Equal(t, 20, res.UnchangedCount)
		assert.Zero(t, res.ToVoiceCount)
		for _, e := range res.Entries {
			assert.Equal(t, TypeUnchanged, e.Type)
		}
	}
}

func TestCompute_SingleFieldChange(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	q := randomQuests(r, 30)
	base := snapshotOf(q)

	target := q[r.Intn(len(q))].ID
	mutated := make([]quests.Quest, len(q))
	copy(mutated, q)
	for i := range mutated {
		if mutated[i].ID == target {
			mutated[i].Description += " (revised)"
		}
	}

	res := Compute(mutated, base, order)
	assert.Equal(t, 1, res.ChangedCount)
	assert.Equal(t, 29, res.UnchangedCount)
	assert.Equal(t, 1, res.ToVoiceCount)
	changed := res.Filter(TypeChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, target, changed[0].QuestID)
	assert.NotEqual(t, changed[0].Fingerprint, changed[0].PreviousFingerprint)
}

func TestCompute_Removal(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	q := randomQuests(r, 10)
	base := snapshotOf(q)
	removed := q[3]
	rest := append(append([]quests.Quest{}, q[:3]...), q[4:]...)

	res := Compute(rest, base, order)
	assert.Equal(t, 1, res.RemovedCount)
	assert.Equal(t, 9, res.UnchangedCount)
	assert.Zero(t, res.ToVoiceCount, "removed entries never count towards voicing")

	e, ok := res.Get(removed.ID)
	require.True(t, ok)
	assert.Equal(t, TypeRemoved, e.Type)
	assert.Equal(t, removed.Zone, e.Zone)
	assert.Empty(t, e.Fingerprint)
}

func TestCompute_ElwynnScenario(t *testing.T) {
	q := []quests.Quest{
		{ID: 1, Zone: "Elwynn", Title: "A"},
		{ID: 2, Zone: "Elwynn", Title: "B"},
	}
	base := snapshotOf(q)

	res := Compute(q, base, order)
	assert.Equal(t, 2, res.UnchangedCount)
	assert.Equal(t, 0, res.ToVoiceCount)

	q[0].Title = "A2"
	res = Compute(q, base, order)
	assert.Equal(t, 1, res.ChangedCount)
	assert.Equal(t, 1, res.UnchangedCount)
	assert.Equal(t, 1, res.ToVoiceCount)
	assert.Equal(t, TypeChanged, res.Entries[0].Type)
	assert.Equal(t, 1, res.Entries[0].QuestID)
	assert.Equal(t, TypeUnchanged, res.Entries[1].Type)
	assert.Equal(t, 2, res.Entries[1].QuestID)
}

func TestCompute_Mixed(t *testing.T) {
	base := snapshotOf([]quests.Quest{
		{ID: 5, Title: "kept", Zone: "Elwynn"},
		{ID: 3, Title: "old", Zone: "Westfall"},
		{ID: 9, Title: "gone", Zone: "Duskwood"},
	})
	current := []quests.Quest{
		{ID: 7, Title: "fresh", Zone: "Elwynn"},
		{ID: 5, Title: "kept", Zone: "Elwynn"},
		{ID: 3, Title: "new text", Zone: "Westfall"},
	}

	res := Compute(current, base, order)
	assertSorted(t, res)
	got := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		got = append(got, fmt.Sprintf("%d:%s", e.QuestID, e.Type))
	}
	assert.Equal(t, []string{"3:changed", "5:unchanged", "7:new", "9:removed"}, got)
	assert.Equal(t, "1 new, 1 changed, 1 removed, 1 unchanged (2 to voice); baseline base", res.Summary)

	again := Compute(current, base, order)
	assert.Equal(t, res, again, "deterministic output")
}

func TestCompute_DuplicateIDsLastWins(t *testing.T) {
	base := snapshotOf([]quests.Quest{{ID: 1, Title: "A"}})
	current := []quests.Quest{{ID: 1, Title: "changed"}, {ID: 1, Title: "A"}}

	res := Compute(current, base, order)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, TypeUnchanged, res.Entries[0].Type)
}

func TestCompute_TextOrderMatters(t *testing.T) {
	q := []quests.Quest{{ID: 1, Completion: "C", RewardText: "R"}}
	base := snapshot.NewSet(q, "base", snapshot.KindInitial, quests.TextOrderSwapped)

	assert.Equal(t, 1, Compute(q, base, quests.TextOrderSwapped).UnchangedCount)
	assert.Equal(t, 1, Compute(q, base, quests.TextOrderDirect).ChangedCount)
}

func TestResult_FilterAndGet(t *testing.T) {
	res := Compute([]quests.Quest{{ID: 2}, {ID: 1}}, snapshotOf([]quests.Quest{{ID: 1}, {ID: 4}}), order)

	assert.Len(t, res.Filter(), 3)
	assert.Len(t, res.Filter(TypeNew, TypeRemoved), 2)
	assert.Empty(t, res.Filter(TypeChanged))

	_, ok := res.Get(3)
	assert.False(t, ok)
	e, ok := res.Get(4)
	assert.True(t, ok)
	assert.Equal(t, TypeRemoved, e.Type)

	var nilResult *Result
	assert.Nil(t, nilResult.Filter())
	assert.Equal(t, "No quests to compare", Compute(nil, nil, order).Summary)
}

func TestParseType(t *testing.T) {
	tp, err := ParseType(" Changed ")
	require.NoError(t, err)
	assert.Equal(t, TypeChanged, tp)
	assert.True(t, tp.NeedsVoicing())
	assert.False(t, TypeRemoved.NeedsVoicing())

	_, err = ParseType("modified")
	assert.Error(t, err)
}
