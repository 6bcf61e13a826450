package integrity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quest-voice/core/reconcile"
	"quest-voice/core/storage"
	"quest-voice/core/storage/mocks"
	"quest-voice/feature/audioindex"
	"quest-voice/feature/quests"
	"quest-voice/feature/voicesync"

	"github.com/gofrs/flock"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedSource struct {
	quests []quests.Quest
	err    error
}

func (s fixedSource) Load(ctx context.Context) ([]quests.Quest, error) {
	return s.quests, s.err
}

const lang = "deDE"

type fixture struct {
	root    string
	index   *audioindex.Index
	client  *mocks.Client
	service *Service
}

// newFixture lays out local audio for 1/male, 1/female, 2/male and the orphan 9/male.
func newFixture(t *testing.T, withClient bool) *fixture {
	t.Helper()
	root := t.TempDir()
	index := audioindex.New(lang)
	local := []struct {
		id int
		g  audioindex.Gender
	}{
		{1, audioindex.GenderMale}, {1, audioindex.GenderFemale}, {2, audioindex.GenderMale}, {9, audioindex.GenderMale},
	}
	for _, l := range local {
		p := audioindex.AudioPath(root, lang, l.g, "Elwynn", l.id, "mp3")
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("ID3"), 0o644))
		index.Update(l.id, l.g, p, time.Now())
	}

	f := &fixture{root: root, index: index}
	var client storage.Client
	if withClient {
		f.client = new(mocks.Client)
		client = f.client
	}
	source := fixedSource{quests: []quests.Quest{
		{ID: 1, Title: "A", Zone: "Elwynn"},
		{ID: 2, Title: "B", Zone: "Elwynn"},
	}}
	f.service = NewService(source, index, client, zap.NewNop(), Config{
		OutputRoot:     root,
		LanguageCode:   lang,
		AudioExtension: "mp3",
		IndexPath:      filepath.Join(root, audioindex.IndexFileName),
		Bucket:         "voices",
		AudioPrefix:    "audio",
		AddonPrefix:    "addons",
	})
	return f
}

func (f *fixture) expectListing() {
	f.client.On("ListObjects", mock.Anything, "voices", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
		return opts.Prefix == "audio/deDE/" && opts.Recursive
	})).Return(mocks.ObjectChannel(
		"audio/deDE/male/Elwynn/quest_1.mp3",
		"audio/deDE/female/Elwynn/quest_1.mp3",
		"audio/deDE/male/Elwynn/quest_9.mp3",
		"audio/deDE/female/Westfall/quest_3.mp3",
	)).Once()
}

func TestAudioKey(t *testing.T) {
	assert.Equal(t, "42/female", AudioKey(42, audioindex.GenderFemale))

	id, g, err := ParseAudioKey("42/male")
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, audioindex.GenderMale, g)

	for _, bad := range []string{"42", "x/male", "42/robot", "+42/male", "042/male", "0/male"} {
		_, _, err := ParseAudioKey(bad)
		assert.Error(t, err, bad)
	}

	assert.True(t, lessAudioKey("9/female", "10/male"))
	assert.True(t, lessAudioKey("9/male", "9/female"))
}

func TestCheckAudio(t *testing.T) {
	f := newFixture(t, true)
	f.expectListing()

	plan, err := f.service.CheckAudio(context.Background())
	require.NoError(t, err)

	assert.Equal(t, reconcile.PlanSummary{
		TotalItems:     6,
		MissingLocal:   1,
		MissingStorage: 1,
		Orphaned:       2,
	}, plan.Summary)
	assert.Empty(t, plan.Actions)

	var order []string
	for _, r := range plan.Results {
		order = append(order, r.Key)
	}
	assert.Equal(t, []string{"1/male", "1/female", "2/male", "2/female", "3/female", "9/male"}, order)
	f.client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckAudio_StorageDisabled(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.service.CheckAudio(context.Background())
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestCheckAudio_CatalogError(t *testing.T) {
	f := newFixture(t, true)
	f.client.On("ListObjects", mock.Anything, "voices", mock.Anything).Return(mocks.ObjectChannel())
	f.service.source = fixedSource{err: errors.New("quests.json missing")}

	_, err := f.service.CheckAudio(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "quests.json missing")
}

func TestSyncAudio_DryRun(t *testing.T) {
	f := newFixture(t, true)
	f.expectListing()

	report, err := f.service.SyncAudio(context.Background(), reconcile.Options{DoUpload: true, DoPurge: true, DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Zero(t, report.Executed)
	assert.Equal(t, 1, report.Plan.Summary.UploadActions)
	assert.Equal(t, 3, report.Plan.Summary.PurgeActions)
	assert.FileExists(t, audioindex.AudioPath(f.root, lang, audioindex.GenderMale, "Elwynn", 9, "mp3"))
}

func TestSyncAudio_Executes(t *testing.T) {
	f := newFixture(t, true)
	f.expectListing()
	f.client.On("PutObject", mock.Anything, "voices", "audio/deDE/male/Elwynn/quest_2.mp3", mock.Anything, int64(3),
		minio.PutObjectOptions{ContentType: "audio/mpeg"}).Return(minio.UploadInfo{}, nil).Once()
	f.client.On("RemoveObject", mock.Anything, "voices", "audio/deDE/male/Elwynn/quest_9.mp3", mock.Anything).Return(nil).Once()
	f.client.On("RemoveObject", mock.Anything, "voices", "audio/deDE/female/Westfall/quest_3.mp3", mock.Anything).Return(nil).Once()

	report, err := f.service.SyncAudio(context.Background(), reconcile.Options{DoUpload: true, DoPurge: true, Confirmed: true})
	require.NoError(t, err)
	assert.False(t, report.DryRun)
	assert.Equal(t, 4, report.Executed)
	f.client.AssertExpectations(t)

	assert.NoFileExists(t, audioindex.AudioPath(f.root, lang, audioindex.GenderMale, "Elwynn", 9, "mp3"))
	_, ok := f.index.Lookup(9, audioindex.GenderMale)
	assert.False(t, ok)

	saved, err := audioindex.Load(filepath.Join(f.root, audioindex.IndexFileName))
	require.NoError(t, err)
	assert.Equal(t, 3, saved.Len())
}

func TestSyncAudio_UploadFailure(t *testing.T) {
	f := newFixture(t, true)
	f.expectListing()
	f.client.On("PutObject", mock.Anything, "voices", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("quota exceeded"))

	report, err := f.service.SyncAudio(context.Background(), reconcile.Options{DoUpload: true, Confirmed: true})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	require.NotNil(t, report)
	assert.Zero(t, report.Executed)
}

func TestSyncAudio_Locked(t *testing.T) {
	f := newFixture(t, true)
	other := flock.New(filepath.Join(f.root, voicesync.LockFileName))
	ok, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer other.Unlock()

	_, err = f.service.SyncAudio(context.Background(), reconcile.Options{DoUpload: true, Confirmed: true})
	assert.ErrorIs(t, err, voicesync.ErrLocked)
	f.client.AssertNotCalled(t, "ListObjects", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckStructure(t *testing.T) {
	t.Run("LocalOnly", func(t *testing.T) {
		f := newFixture(t, false)
		report, err := f.service.CheckStructure(context.Background())
		require.NoError(t, err)
		assert.Empty(t, report.MissingLocal)
		assert.Empty(t, report.MissingStorage)
	})

	t.Run("FixesMissing", func(t *testing.T) {
		f := newFixture(t, true)
		require.NoError(t, os.RemoveAll(filepath.Join(f.root, "audio", lang, "female")))
		f.client.On("BucketExists", mock.Anything, "voices").Return(true, nil)
		listing := map[string][]string{
			"audio/deDE/male/":   {"audio/deDE/male/Elwynn/quest_1.mp3"},
			"audio/deDE/female/": {"audio/deDE/female/Elwynn/quest_1.mp3"},
			"addons/":            nil,
		}
		for prefix, keys := range listing {
			prefix := prefix
			f.client.On("ListObjects", mock.Anything, "voices", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
				return opts.Prefix == prefix
			})).Return(mocks.ObjectChannel(keys...))
		}
		f.client.On("PutObject", mock.Anything, "voices", "addons/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

		report, err := f.service.CheckStructure(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(f.root, "audio", lang, "female")}, report.MissingLocal)
		assert.Equal(t, []string{"addons"}, report.MissingStorage)

		require.NoError(t, f.service.FixStructure(context.Background(), report))
		assert.Equal(t, "fixed", report.Status)
		assert.DirExists(t, filepath.Join(f.root, "audio", lang, "female"))
		f.client.AssertNumberOfCalls(t, "PutObject", 1)
	})
}
