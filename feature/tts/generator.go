package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"quest-voice/core/storage"
	"quest-voice/core/utils"
	"quest-voice/feature/audioindex"
	"quest-voice/feature/quests"
	"quest-voice/feature/voicesync"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ErrNoText is returned for quests without narratable text.
var ErrNoText = errors.New("no text")

// Voice is the synthesis profile of one narrator.
type Voice struct {
	ID              string
	Stability       float64
	SimilarityBoost float64
}

// Config configures a Generator.
type Config struct {
	BaseURL      string
	ApiKey       string
	ModelID      string
	OutputFormat string
	// Voices maps each gender to its narrator. Genders without a voice are skipped.
	Voices            map[audioindex.Gender]Voice
	IncludeObjectives bool
	Timeout           time.Duration
	// OutputRoot and Extension locate the written files.
	OutputRoot string
	Extension  string
}

// Mirror uploads generated files to object storage.
type Mirror struct {
	Client storage.Client
	Bucket string
	Prefix string
}

// Generator synthesizes quest narration over HTTP.
type Generator struct {
	cfg    Config
	mirror *Mirror
	logger *zap.Logger
}

// NewGenerator validates the configuration and creates a generator. mirror may be nil.
func NewGenerator(cfg Config, mirror *Mirror, logger *zap.Logger) (*Generator, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("tts base url is required")
	}
	configured := 0
	for _, v := range cfg.Voices {
		if v.ID != "" {
			configured++
		}
	}
	if configured == 0 {
		return nil, errors.New("at least one tts voice id is required")
	}
	if cfg.Extension == "" {
		cfg.Extension = "mp3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if mirror != nil && mirror.Client == nil {
		mirror = nil
	}
	return &Generator{cfg: cfg, mirror: mirror, logger: logger}, nil
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Generate narrates the quest with every configured voice and writes one file per gender.
// When a later gender fails, the files already written are returned with the error.
func (g *Generator) Generate(ctx context.Context, q quests.Quest, languageCode string) ([]voicesync.GeneratedAudio, error) {
	text := NarrationText(q, g.cfg.IncludeObjectives)
	if text == "" {
		return nil, ErrNoText
	}

	var out []voicesync.GeneratedAudio
	for _, gender := range audioindex.Genders {
		voice, ok := g.cfg.Voices[gender]
		if !ok || voice.ID == "" {
			continue
		}
		audio, err := g.synthesize(ctx, voice, text)
		if err != nil {
			return out, fmt.Errorf("%s voice: %w", gender, err)
		}

		path := audioindex.AudioPath(g.cfg.OutputRoot, languageCode, gender, q.Zone, q.ID, g.cfg.Extension)
		if err := utils.WriteFileAtomic(path, audio, 0o644); err != nil {
			return out, fmt.Errorf("failed to write %s: %w", path, err)
		}
		out = append(out, voicesync.GeneratedAudio{Gender: gender, Path: path, ModifiedAt: time.Now().UTC()})

		if err := g.upload(ctx, languageCode, gender, q, audio); err != nil {
			return out, err
		}

		g.logger.Debug("Quest narrated",
			zap.Int("quest_id", q.ID),
			zap.String("gender", string(gender)),
			zap.Int("bytes", len(audio)))
	}
	return out, nil
}

// synthesize posts one text-to-speech request and returns the audio body.
func (g *Generator) synthesize(ctx context.Context, voice Voice, text string) ([]byte, error) {
	endpoint := strings.TrimRight(g.cfg.BaseURL, "/") + "/v1/text-to-speech/" + url.PathEscape(voice.ID)

	agent := fiber.Post(endpoint)
	agent.JSONEncoder(json.Marshal)
	agent.Set("xi-api-key", g.cfg.ApiKey)
	agent.Set(fiber.HeaderAccept, "audio/mpeg")
	if g.cfg.OutputFormat != "" {
		agent.QueryString("output_format=" + url.QueryEscape(g.cfg.OutputFormat))
	}
	agent.Timeout(g.cfg.Timeout)
	agent.JSON(synthesisRequest{
		Text:    text,
		ModelID: g.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       voice.Stability,
			SimilarityBoost: voice.SimilarityBoost,
		},
	})

	type response struct {
		code int
		body []byte
		errs []error
	}
	done := make(chan response, 1)
	go func() {
		code, body, errs := agent.Bytes()
		done <- response{code: code, body: body, errs: errs}
	}()

	var resp response
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp = <-done:
	}

	if len(resp.errs) > 0 {
		return nil, fmt.Errorf("tts request failed: %w", errors.Join(resp.errs...))
	}
	if resp.code < 200 || resp.code >= 300 {
		return nil, fmt.Errorf("tts request failed, status=%d body=%s", resp.code, truncate(strings.TrimSpace(string(resp.body)), 200))
	}
	if len(resp.body) == 0 {
		return nil, errors.New("tts response is empty")
	}
	return resp.body, nil
}

func (g *Generator) upload(ctx context.Context, languageCode string, gender audioindex.Gender, q quests.Quest, audio []byte) error {
	if g.mirror == nil {
		return nil
	}
	key := audioindex.ObjectKey(g.mirror.Prefix, languageCode, gender, q.Zone, q.ID, g.cfg.Extension)
	_, err := g.mirror.Client.PutObject(ctx, g.mirror.Bucket, key, bytes.NewReader(audio), int64(len(audio)), minio.PutObjectOptions{
		ContentType: ContentType(g.cfg.Extension),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// ContentType maps an audio extension to its MIME type.
func ContentType(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "mp3":
		return "audio/mpeg"
	case "ogg":
		return "audio/ogg"
	case "wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
