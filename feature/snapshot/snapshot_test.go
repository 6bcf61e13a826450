package snapshot

import (
	"context"
	"errors"
	"testing"

	"quest-voice/core/fingerprint"
	"quest-voice/feature/quests"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func elwynn() []quests.Quest {
	return []quests.Quest{
		{ID: 1, Zone: "Elwynn", Title: "A"},
		{ID: 2, Zone: "Elwynn", Title: "B"},
	}
}

func TestNewSet(t *testing.T) {
	list := append(elwynn(), quests.Quest{ID: 1, Zone: "Westfall", Title: "A2"})
	set := NewSet(list, "v1", KindInitial, quests.TextOrderSwapped)

	assert.Equal(t, 2, set.QuestCount)
	assert.Equal(t, fingerprint.Version, set.FingerprintVersion)
	assert.Equal(t, KindInitial, set.Kind)

	e, ok := set.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "Westfall", e.Zone, "last duplicate wins")
	assert.Equal(t, list[2].Fingerprint(quests.TextOrderSwapped), e.Fingerprint)
	assert.False(t, e.Timestamp.IsZero())

	var nilSet *Set
	_, ok = nilSet.Lookup(1)
	assert.False(t, ok)
}

func TestValidateVersion(t *testing.T) {
	for _, v := range []string{"1.12.1", "build-5875", "apply-20261018T120000Z-1a2b3c4d", "A_b"} {
		assert.NoError(t, ValidateVersion(v), v)
	}
	for _, v := range []string{"", "last", "../escape", "with space", ".hidden", "a/b"} {
		assert.ErrorIs(t, ValidateVersion(v), ErrInvalidVersion, v)
	}
}

func TestStorageError(t *testing.T) {
	base := errors.New("disk full")
	err := storageErr("save x", base)

	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "save x", se.Op)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "snapshot save x: disk full", err.Error())

	// Already wrapped errors are not wrapped twice.
	assert.Same(t, err, storageErr("other", err))
	assert.NoError(t, storageErr("noop", nil))
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	s, err := NewStore(ctx, "", t.TempDir(), nil, quests.DefaultTextOrder)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = NewStore(ctx, BackendDatabase, t.TempDir(), nil, quests.DefaultTextOrder)
	assert.Error(t, err)

	s, err = NewStore(ctx, BackendDatabase, "", openSQLite(t), quests.DefaultTextOrder)
	require.NoError(t, err)
	assert.IsType(t, &DBStore{}, s)

	_, err = NewStore(ctx, "redis", "", nil, quests.DefaultTextOrder)
	assert.Error(t, err)
}
