package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quest-voice/core/storage/mocks"
	"quest-voice/feature/audioindex"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeAudio(t *testing.T, root string, gender audioindex.Gender, zone string, id int) string {
	t.Helper()
	p := audioindex.AudioPath(root, "deDE", gender, zone, id, "mp3")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("ID3"), 0o644))
	return p
}

func setupIndex(t *testing.T, root string) *audioindex.Index {
	t.Helper()
	ix := audioindex.New("deDE")
	now := time.Now()
	ix.Update(12, audioindex.GenderMale, writeAudio(t, root, audioindex.GenderMale, "Westfall", 12), now)
	ix.Update(7, audioindex.GenderMale, writeAudio(t, root, audioindex.GenderMale, "Elwynn", 7), now)
	ix.Update(7, audioindex.GenderFemale, writeAudio(t, root, audioindex.GenderFemale, "Elwynn", 7), now)
	return ix
}

func testConfig(root string) Config {
	return Config{
		Name:       "QuestVoice",
		Dir:        filepath.Join(root, "addon"),
		Interface:  "11200",
		Version:    "1.2.0",
		OutputRoot: root,
		CopyAudio:  true,
	}
}

func TestExport_WritesPackage(t *testing.T) {
	root := t.TempDir()
	exp := NewAddonExporter(testConfig(root), setupIndex(t, root), nil, zap.NewNop())

	res, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Quests)
	assert.Equal(t, 3, res.Files)
	assert.Equal(t, 3, res.Copied)
	assert.Zero(t, res.Uploaded)

	toc, err := os.ReadFile(filepath.Join(exp.Dir(), "QuestVoice.toc"))
	require.NoError(t, err)
	assert.Contains(t, string(toc), "## Interface: 11200\n")
	assert.Contains(t, string(toc), "## Title: QuestVoice\n")
	assert.Contains(t, string(toc), "## Version: 1.2.0\n")
	assert.Contains(t, string(toc), "\nQuestVoiceData.lua\n")

	lua, err := os.ReadFile(filepath.Join(exp.Dir(), DataFileName))
	require.NoError(t, err)
	want := "-- Generated by quest-voice. Do not edit.\n" +
		"QuestVoiceData = {\n" +
		"  language = \"deDE\",\n" +
		"  count = 2,\n" +
		"  quests = {\n" +
		`    [7] = { male = "Interface\\AddOns\\QuestVoice\\audio\\deDE\\male\\Elwynn\\quest_7.mp3", female = "Interface\\AddOns\\QuestVoice\\audio\\deDE\\female\\Elwynn\\quest_7.mp3" },` + "\n" +
		`    [12] = { male = "Interface\\AddOns\\QuestVoice\\audio\\deDE\\male\\Westfall\\quest_12.mp3" },` + "\n" +
		"  },\n" +
		"}\n"
	assert.Equal(t, want, string(lua))

	assert.FileExists(t, filepath.Join(exp.Dir(), "audio", "deDE", "female", "Elwynn", "quest_7.mp3"))

	// Unchanged audio is not copied again.
	res, err = exp.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Copied)
}

func TestExport_WithoutAudioCopy(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	cfg.CopyAudio = false
	exp := NewAddonExporter(cfg, setupIndex(t, root), nil, zap.NewNop())

	require.NoError(t, exp.Export(context.Background()))
	assert.NoDirExists(t, filepath.Join(exp.Dir(), "audio"))
	assert.FileExists(t, filepath.Join(exp.Dir(), DataFileName))
}

func TestExport_SkipsForeignPaths(t *testing.T) {
	root := t.TempDir()
	ix := setupIndex(t, root)
	ix.Update(99, audioindex.GenderMale, filepath.Join(t.TempDir(), "quest_99.mp3"), time.Now())

	res, err := NewAddonExporter(testConfig(root), ix, nil, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Quests)
}

func TestExport_EmptyIndex(t *testing.T) {
	root := t.TempDir()
	exp := NewAddonExporter(testConfig(root), audioindex.New("enUS"), nil, zap.NewNop())

	res, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Quests)
	lua, err := os.ReadFile(filepath.Join(exp.Dir(), DataFileName))
	require.NoError(t, err)
	assert.Contains(t, string(lua), "count = 0,")
}

func TestExport_Upload(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	cfg.Upload = true
	cfg.Bucket = "voices"
	cfg.UploadPrefix = "addons"

	client := new(mocks.Client)
	for _, key := range []string{
		"addons/QuestVoice/QuestVoice.toc",
		"addons/QuestVoice/QuestVoiceData.lua",
		"addons/QuestVoice/audio/deDE/male/Elwynn/quest_7.mp3",
		"addons/QuestVoice/audio/deDE/female/Elwynn/quest_7.mp3",
		"addons/QuestVoice/audio/deDE/male/Westfall/quest_12.mp3",
	} {
		client.On("PutObject", mock.Anything, "voices", key, mock.Anything, mock.AnythingOfType("int64"), mock.Anything).
			Return(minio.UploadInfo{Key: key}, nil).Once()
	}

	res, err := NewAddonExporter(cfg, setupIndex(t, root), client, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Uploaded)
	client.AssertExpectations(t)
}

func TestExport_UploadWithoutClient(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	cfg.Upload = true

	err := NewAddonExporter(cfg, setupIndex(t, root), nil, zap.NewNop()).Export(context.Background())
	assert.ErrorContains(t, err, "storage is not configured")
}

func TestExport_Cancelled(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewAddonExporter(testConfig(root), setupIndex(t, root), nil, zap.NewNop()).Export(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLuaString(t *testing.T) {
	assert.Equal(t, `"a\\b\"c\n"`, luaString("a\\b\"c\n"))
}
