package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"quest-voice/core/database"
	"quest-voice/core/logger"
	"quest-voice/core/server"
	"quest-voice/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP API.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage mirror (S3, MinIO).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Voice holds configuration for the synchronization engine.
	Voice VoiceConfig `mapstructure:"voice"`
	// TTS holds configuration for the speech synthesis backend.
	TTS TTSConfig `mapstructure:"tts"`
	// Addon holds configuration for the add-on export step.
	Addon AddonConfig `mapstructure:"addon"`
}

// VoiceConfig configures quest sources, the snapshot store and the audio layout.
type VoiceConfig struct {
	// OutputRoot is the root of the audio and snapshot layout.
	OutputRoot string `mapstructure:"output_root" default:"./output"`
	// LanguageCode selects the audio/<lang> subtree (e.g. deDE, enUS).
	LanguageCode string `mapstructure:"language_code" default:"deDE"`
	// AudioExtension is the file extension written by the generator.
	AudioExtension string `mapstructure:"audio_extension" default:"mp3"`
	// RequireBothGenders counts a quest as voiced only if male and female audio exist.
	RequireBothGenders bool `mapstructure:"require_both_genders" default:"false"`
	// TextOrder is the completion/reward text resolution policy (swapped, direct).
	TextOrder string `mapstructure:"text_order" default:"swapped"`
	// QuestSource selects where quests are read from (file, database).
	QuestSource string `mapstructure:"quest_source" default:"file"`
	// QuestsFile is the JSON export read by the file quest source.
	QuestsFile string `mapstructure:"quests_file" default:"./data/quests.json"`
	// QuestTable is the table read by the database quest source.
	QuestTable string `mapstructure:"quest_table" default:"quests"`
	// SnapshotBackend selects the snapshot store (file, database).
	SnapshotBackend string `mapstructure:"snapshot_backend" default:"file"`
	// DelayMillis is the pause between two generations in an apply run.
	DelayMillis int `mapstructure:"delay_ms" default:"500"`
	// StorageIndexTTLSeconds is how long a storage-built audio index stays cached.
	StorageIndexTTLSeconds int `mapstructure:"storage_index_ttl_seconds" default:"300"`
}

// TTSConfig configures the ElevenLabs-compatible synthesis API.
type TTSConfig struct {
	// BaseURL is the API root.
	BaseURL string `mapstructure:"base_url" default:"https://api.elevenlabs.io"`
	// ApiKey authenticates against the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// ModelID is the synthesis model.
	ModelID string `mapstructure:"model_id" default:"eleven_multilingual_v2"`
	// MaleVoiceID is the voice used for male narration.
	MaleVoiceID string `mapstructure:"male_voice_id" default:""`
	// FemaleVoiceID is the voice used for female narration.
	FemaleVoiceID string `mapstructure:"female_voice_id" default:""`
	// Stability is the voice_settings.stability value.
	Stability float64 `mapstructure:"stability" default:"0.5"`
	// SimilarityBoost is the voice_settings.similarity_boost value.
	SimilarityBoost float64 `mapstructure:"similarity_boost" default:"0.75"`
	// OutputFormat is passed as the output_format query parameter.
	OutputFormat string `mapstructure:"output_format" default:"mp3_44100_128"`
	// IncludeObjectives appends the objectives text to the narration.
	IncludeObjectives bool `mapstructure:"include_objectives" default:"false"`
	// TimeoutSeconds bounds a single synthesis request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
}

// AddonConfig configures the add-on package written by the export step.
type AddonConfig struct {
	// Name is the add-on folder and .toc name.
	Name string `mapstructure:"name" default:"QuestVoice"`
	// Dir is the directory the add-on folder is written into.
	Dir string `mapstructure:"dir" default:"./output/addon"`
	// Interface is the client interface version written into the .toc.
	Interface string `mapstructure:"interface" default:"11200"`
	// Version is the add-on version written into the .toc.
	Version string `mapstructure:"version" default:"1.0.0"`
	// CopyAudio copies voiced files into the add-on folder.
	CopyAudio bool `mapstructure:"copy_audio" default:"true"`
	// Upload pushes the package to object storage when storage is enabled.
	Upload bool `mapstructure:"upload" default:"false"`
	// UploadPrefix is the object prefix for uploaded packages.
	UploadPrefix string `mapstructure:"upload_prefix" default:"addons"`
}

// LoadConfig loads configuration from environment variables, an optional
// config.yaml and an optional .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Missing .env is fine outside development.
	_ = godotenv.Overload(envPath)

	v := viper.New()
	bindValues(v, Config{}, "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// VOICE_OUTPUT_ROOT -> voice.output_root
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects option values the engine cannot act on.
func (c *Config) Validate() error {
	switch c.Voice.TextOrder {
	case "swapped", "direct":
	default:
		return fmt.Errorf("invalid voice.text_order %q (want swapped or direct)", c.Voice.TextOrder)
	}
	switch c.Voice.QuestSource {
	case "file", "database":
	default:
		return fmt.Errorf("invalid voice.quest_source %q (want file or database)", c.Voice.QuestSource)
	}
	switch c.Voice.SnapshotBackend {
	case "file", "database":
	default:
		return fmt.Errorf("invalid voice.snapshot_backend %q (want file or database)", c.Voice.SnapshotBackend)
	}
	if c.Voice.LanguageCode == "" {
		return errors.New("voice.language_code must not be empty")
	}
	return nil
}

// bindValues walks the struct and registers every mapstructure key with its
// `default` tag so AutomaticEnv can resolve it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
