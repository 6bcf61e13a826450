package tts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"quest-voice/core/storage/mocks"
	"quest-voice/feature/audioindex"
	"quest-voice/feature/quests"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	Path   string
	APIKey string
	Format string
	Body   synthesisRequest
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   map[string]int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body synthesisRequest
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Path:   r.URL.Path,
		APIKey: r.Header.Get("xi-api-key"),
		Format: r.URL.Query().Get("output_format"),
		Body:   body,
	})
	status := f.status[r.URL.Path]
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"detail":"quota exceeded"}`))
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	_, _ = w.Write([]byte("ID3-" + r.URL.Path))
}

func testConfig(baseURL, root string) Config {
	return Config{
		BaseURL:      baseURL,
		ApiKey:       "secret",
		ModelID:      "eleven_multilingual_v2",
		OutputFormat: "mp3_44100_128",
		Voices: map[audioindex.Gender]Voice{
			audioindex.GenderMale:   {ID: "male-voice", Stability: 0.5, SimilarityBoost: 0.75},
			audioindex.GenderFemale: {ID: "female-voice", Stability: 0.4, SimilarityBoost: 0.8},
		},
		Timeout:    5 * time.Second,
		OutputRoot: root,
		Extension:  "mp3",
	}
}

var elwynnQuest = quests.Quest{
	ID:          7,
	Title:       "Kobold Camp Cleanup",
	Description: "Clear the kobolds from the Echo Ridge Mine.",
	Objectives:  "Kill 10 Kobold Vermin.",
	Zone:        "Elwynn Forest",
}

func TestNarrationText(t *testing.T) {
	tests := []struct {
		name       string
		quest      quests.Quest
		objectives bool
		want       string
	}{
		{"title and description", elwynnQuest, false, "Kobold Camp Cleanup. Clear the kobolds from the Echo Ridge Mine."},
		{"with objectives", elwynnQuest, true, "Kobold Camp Cleanup. Clear the kobolds from the Echo Ridge Mine. Kill 10 Kobold Vermin."},
		{"title already punctuated", quests.Quest{Title: "Beware.", Description: "x"}, false, "Beware. x"},
		{"description only", quests.Quest{Description: "  Only text. "}, false, "Only text."},
		{"title only", quests.Quest{Title: "Lonely"}, false, "Lonely."},
		{"empty", quests.Quest{Title: "  "}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NarrationText(tt.quest, tt.objectives))
		})
	}
}

func TestNewGenerator_Validation(t *testing.T) {
	_, err := NewGenerator(Config{Voices: map[audioindex.Gender]Voice{audioindex.GenderMale: {ID: "m"}}}, nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewGenerator(Config{BaseURL: "http://tts"}, nil, zap.NewNop())
	assert.ErrorContains(t, err, "voice id")

	g, err := NewGenerator(Config{BaseURL: "http://tts", Voices: map[audioindex.Gender]Voice{audioindex.GenderFemale: {ID: "f"}}}, &Mirror{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "mp3", g.cfg.Extension)
	assert.Nil(t, g.mirror, "a mirror without client is ignored")
}

func TestGenerate_BothGenders(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()
	root := t.TempDir()

	g, err := NewGenerator(testConfig(srv.URL, root), nil, zap.NewNop())
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), elwynnQuest, "deDE")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, audioindex.GenderMale, out[0].Gender)
	assert.Equal(t, audioindex.GenderFemale, out[1].Gender)

	for _, a := range out {
		assert.Equal(t, audioindex.AudioPath(root, "deDE", a.Gender, "Elwynn Forest", 7, "mp3"), a.Path)
		data, err := os.ReadFile(a.Path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "ID3-")
		assert.False(t, a.ModifiedAt.IsZero())
	}

	require.Len(t, api.requests, 2)
	first := api.requests[0]
	assert.Equal(t, "/v1/text-to-speech/male-voice", first.Path)
	assert.Equal(t, "secret", first.APIKey)
	assert.Equal(t, "mp3_44100_128", first.Format)
	assert.Equal(t, "eleven_multilingual_v2", first.Body.ModelID)
	assert.Equal(t, NarrationText(elwynnQuest, false), first.Body.Text)
	assert.Equal(t, 0.5, first.Body.VoiceSettings.Stability)
	assert.Equal(t, 0.8, api.requests[1].Body.VoiceSettings.SimilarityBoost)

	// The generated tree is picked up by a filesystem rebuild.
	ix, err := audioindex.BuildFromFilesystem(context.Background(), root, "deDE", []string{"mp3"})
	require.NoError(t, err)
	assert.True(t, ix.HasBothGenders(7))
}

func TestGenerate_NoText(t *testing.T) {
	g, err := NewGenerator(testConfig("http://127.0.0.1:1", t.TempDir()), nil, zap.NewNop())
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), quests.Quest{ID: 1}, "deDE")
	assert.ErrorIs(t, err, ErrNoText)
}

func TestGenerate_APIError(t *testing.T) {
	api := &fakeAPI{status: map[string]int{"/v1/text-to-speech/female-voice": http.StatusTooManyRequests}}
	srv := httptest.NewServer(api)
	defer srv.Close()

	g, err := NewGenerator(testConfig(srv.URL, t.TempDir()), nil, zap.NewNop())
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), elwynnQuest, "deDE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "female voice")
	assert.Contains(t, err.Error(), "status=429")
	assert.Contains(t, err.Error(), "quota exceeded")

	// The male file was written before the female request failed.
	require.Len(t, out, 1)
	assert.Equal(t, audioindex.GenderMale, out[0].Gender)
	assert.FileExists(t, out[0].Path)
}

func TestGenerate_FirstVoiceFails(t *testing.T) {
	api := &fakeAPI{status: map[string]int{"/v1/text-to-speech/male-voice": http.StatusInternalServerError}}
	srv := httptest.NewServer(api)
	defer srv.Close()

	g, err := NewGenerator(testConfig(srv.URL, t.TempDir()), nil, zap.NewNop())
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), elwynnQuest, "deDE")
	assert.ErrorContains(t, err, "male voice")
	assert.Empty(t, out)
	assert.Len(t, api.requests, 1, "female voice is not requested after male fails")
}

func TestGenerate_SingleVoice(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	cfg := testConfig(srv.URL, t.TempDir())
	delete(cfg.Voices, audioindex.GenderFemale)
	g, err := NewGenerator(cfg, nil, zap.NewNop())
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), elwynnQuest, "enUS")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, audioindex.GenderMale, out[0].Gender)
	assert.Contains(t, out[0].Path, filepath.Join("audio", "enUS", "male"))
}

func TestGenerate_Mirror(t *testing.T) {
	srv := httptest.NewServer(&fakeAPI{})
	defer srv.Close()

	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "voices", "audio/deDE/male/Elwynn_Forest/quest_7.mp3", mock.Anything, mock.AnythingOfType("int64"), mock.MatchedBy(func(o minio.PutObjectOptions) bool {
		return o.ContentType == "audio/mpeg"
	})).Return(minio.UploadInfo{}, nil).Once()
	client.On("PutObject", mock.Anything, "voices", "audio/deDE/female/Elwynn_Forest/quest_7.mp3", mock.Anything, mock.AnythingOfType("int64"), mock.Anything).
		Return(minio.UploadInfo{}, errors.New("bucket offline")).Once()

	g, err := NewGenerator(testConfig(srv.URL, t.TempDir()), &Mirror{Client: client, Bucket: "voices", Prefix: "audio"}, zap.NewNop())
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), elwynnQuest, "deDE")
	assert.ErrorContains(t, err, "bucket offline")
	assert.Len(t, out, 2, "the female file is on disk even though its upload failed")
	client.AssertExpectations(t)
}

func TestGenerate_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	g, err := NewGenerator(testConfig(srv.URL, t.TempDir()), nil, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = g.Generate(ctx, elwynnQuest, "deDE")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "audio/mpeg", ContentType("MP3"))
	assert.Equal(t, "audio/ogg", ContentType(".ogg"))
	assert.Equal(t, "application/octet-stream", ContentType("flac"))
}
