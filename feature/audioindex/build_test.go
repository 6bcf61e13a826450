package audioindex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quest-voice/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestBuildFromFilesystem(t *testing.T) {
	root := t.TempDir()
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	touch(t, AudioPath(root, "deDE", GenderMale, "Elwynn", 1, "mp3"), old)
	touch(t, AudioPath(root, "deDE", GenderFemale, "Elwynn", 1, "mp3"), old)
	touch(t, AudioPath(root, "deDE", GenderMale, "Westfall", 2, "mp3"), old)
	// Same quest under a renamed zone: the newer file wins.
	touch(t, AudioPath(root, "deDE", GenderMale, "Westfall_New", 2, "mp3"), recent)
	// Ignored: wrong extension, wrong name, outside a zone dir, other language.
	touch(t, AudioPath(root, "deDE", GenderMale, "Elwynn", 3, "wav"), old)
	touch(t, filepath.Join(root, "audio", "deDE", "male", "Elwynn", "readme.mp3"), old)
	touch(t, filepath.Join(root, "audio", "deDE", "male", "quest_4.mp3"), old)
	touch(t, AudioPath(root, "enUS", GenderMale, "Elwynn", 5, "mp3"), old)
	// Non-canonical ids never alias a real quest.
	touch(t, filepath.Join(root, "audio", "deDE", "female", "Westfall", "quest_+2.mp3"), recent)
	touch(t, filepath.Join(root, "audio", "deDE", "female", "Westfall", "quest_02.mp3"), recent)

	ix, err := BuildFromFilesystem(context.Background(), root, "deDE", []string{"mp3"})
	require.NoError(t, err)

	assert.Equal(t, 3, ix.Len())
	assert.True(t, ix.HasBothGenders(1))
	assert.True(t, ix.HasAnyAudio(2))
	assert.False(t, ix.HasAnyAudio(3))
	assert.False(t, ix.HasAnyAudio(4))
	assert.False(t, ix.HasAnyAudio(5))
	assert.False(t, ix.HasBothGenders(2))

	e, ok := ix.Lookup(2, GenderMale)
	require.True(t, ok)
	assert.Contains(t, e.Path, "Westfall_New")
	assert.Equal(t, recent, e.ModifiedAt)
}

func TestBuildFromFilesystem_MissingRoot(t *testing.T) {
	ix, err := BuildFromFilesystem(context.Background(), filepath.Join(t.TempDir(), "nope"), "deDE", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Len())
	assert.Equal(t, "deDE", ix.Language())
}

func TestBuildFromFilesystem_Cancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, AudioPath(root, "deDE", GenderMale, "Elwynn", 1, "mp3"), time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildFromFilesystem(ctx, root, "deDE", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildFromStorage(t *testing.T) {
	client := new(mocks.Client)
	mod := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	ch := make(chan minio.ObjectInfo, 4)
	ch <- minio.ObjectInfo{Key: "audio/deDE/male/Elwynn/quest_1.mp3", LastModified: mod}
	ch <- minio.ObjectInfo{Key: "audio/deDE/female/Elwynn/quest_1.mp3", LastModified: mod}
	ch <- minio.ObjectInfo{Key: "audio/deDE/robot/Elwynn/quest_2.mp3", LastModified: mod}
	ch <- minio.ObjectInfo{Key: "audio/deDE/male/quest_3.mp3", LastModified: mod}
	close(ch)

	client.On("ListObjects", mock.Anything, "quest-voice", minio.ListObjectsOptions{Prefix: "audio/deDE/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	ix, err := BuildFromStorage(context.Background(), client, "quest-voice", "audio", "deDE", []string{"mp3"})
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
	assert.True(t, ix.HasBothGenders(1))
	e, _ := ix.Lookup(1, GenderMale)
	assert.Equal(t, "audio/deDE/male/Elwynn/quest_1.mp3", e.Path)
	assert.Equal(t, mod, e.ModifiedAt)
	client.AssertExpectations(t)
}

func TestBuildFromStorage_ListError(t *testing.T) {
	client := new(mocks.Client)
	ch := make(chan minio.ObjectInfo, 1)
	ch <- minio.ObjectInfo{Err: errors.New("access denied")}
	close(ch)
	client.On("ListObjects", mock.Anything, "bucket", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	_, err := BuildFromStorage(context.Background(), client, "bucket", "audio", "deDE", nil)
	assert.ErrorContains(t, err, "access denied")

	_, err = BuildFromStorage(context.Background(), nil, "bucket", "audio", "deDE", nil)
	assert.Error(t, err)
}
