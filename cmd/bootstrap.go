package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"quest-voice/core/config"
	"quest-voice/core/database"
	"quest-voice/core/logger"
	"quest-voice/core/storage"
	"quest-voice/feature/audioindex"
	"quest-voice/feature/export"
	"quest-voice/feature/integrity"
	"quest-voice/feature/quests"
	"quest-voice/feature/snapshot"
	"quest-voice/feature/tts"
	"quest-voice/feature/voicesync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// engine holds everything a command needs, wired from configuration.
type engine struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   storage.Client
	exporter *export.AddonExporter
	service  *voicesync.Service
	checker  *integrity.Service
	// generatorErr explains why no generator is configured.
	generatorErr error
}

// bootstrap loads configuration and wires sources, stores, the audio index and the service.
func bootstrap(ctx context.Context) (*engine, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	order, err := quests.ParseTextOrder(cfg.Voice.TextOrder)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	if cfg.Voice.QuestSource == "database" || cfg.Voice.SnapshotBackend == snapshot.BackendDatabase {
		db, err = database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database connection required: %w", err)
		}
		logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
	}

	var client storage.Client
	if cfg.Storage.Enabled {
		client, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			return nil, err
		}
	}

	var source quests.Source
	if cfg.Voice.QuestSource == "database" {
		source = quests.NewDBSource(db, cfg.Voice.QuestTable)
	} else {
		source = quests.NewJSONFileSource(cfg.Voice.QuestsFile)
	}

	store, err := snapshot.NewStore(ctx, cfg.Voice.SnapshotBackend, cfg.Voice.OutputRoot, db, order)
	if err != nil {
		return nil, err
	}

	indexPath := filepath.Join(cfg.Voice.OutputRoot, audioindex.IndexFileName)
	index, err := loadIndex(ctx, cfg, indexPath, logg)
	if err != nil {
		return nil, err
	}

	rt := &engine{cfg: cfg, logger: logg, client: client}

	var generator voicesync.Generator
	var mirror *tts.Mirror
	if client != nil {
		mirror = &tts.Mirror{Client: client, Bucket: cfg.Storage.Bucket, Prefix: cfg.Storage.AudioPrefix}
	}
	gen, err := tts.NewGenerator(ttsConfig(cfg), mirror, logg)
	if err != nil {
		rt.generatorErr = err
	} else {
		generator = gen
	}

	rt.exporter = export.NewAddonExporter(export.Config{
		Name:         cfg.Addon.Name,
		Dir:          cfg.Addon.Dir,
		Interface:    cfg.Addon.Interface,
		Version:      cfg.Addon.Version,
		OutputRoot:   cfg.Voice.OutputRoot,
		CopyAudio:    cfg.Addon.CopyAudio,
		Upload:       cfg.Addon.Upload && client != nil,
		Bucket:       cfg.Storage.Bucket,
		UploadPrefix: cfg.Addon.UploadPrefix,
	}, index, client, logg)

	orch := voicesync.NewOrchestrator(store, index, generator, rt.exporter, logg, voicesync.Options{
		LanguageCode: cfg.Voice.LanguageCode,
		TextOrder:    order,
		Delay:        time.Duration(cfg.Voice.DelayMillis) * time.Millisecond,
		IndexPath:    indexPath,
	})
	rt.service = voicesync.NewService(orch, source, store, client, logg, voicesync.ServiceConfig{
		OutputRoot:         cfg.Voice.OutputRoot,
		LanguageCode:       cfg.Voice.LanguageCode,
		AudioExtension:     cfg.Voice.AudioExtension,
		RequireBothGenders: cfg.Voice.RequireBothGenders,
		Bucket:             cfg.Storage.Bucket,
		AudioPrefix:        cfg.Storage.AudioPrefix,
		StorageIndexTTL:    time.Duration(cfg.Voice.StorageIndexTTLSeconds) * time.Second,
	})
	rt.checker = integrity.NewService(source, index, client, logg, integrity.Config{
		OutputRoot:     cfg.Voice.OutputRoot,
		LanguageCode:   cfg.Voice.LanguageCode,
		AudioExtension: cfg.Voice.AudioExtension,
		IndexPath:      indexPath,
		Bucket:         cfg.Storage.Bucket,
		AudioPrefix:    cfg.Storage.AudioPrefix,
		AddonPrefix:    addonPrefix(cfg),
	})
	return rt, nil
}

// addonPrefix is the add-on upload folder, empty when uploads are off.
func addonPrefix(cfg *config.Config) string {
	if !cfg.Addon.Upload {
		return ""
	}
	return cfg.Addon.UploadPrefix
}

// loadIndex reads the persisted audio index, building it from disk when it is missing or unreadable.
func loadIndex(ctx context.Context, cfg *config.Config, path string, logg *zap.Logger) (*audioindex.Index, error) {
	index, err := audioindex.Load(path)
	if err == nil && index.Language() == cfg.Voice.LanguageCode {
		return index, nil
	}
	switch {
	case err == nil:
		logg.Warn("Audio index language differs, rebuilding",
			zap.String("index", index.Language()),
			zap.String("configured", cfg.Voice.LanguageCode))
	case errors.Is(err, os.ErrNotExist):
		logg.Info("No audio index found, building from disk")
	default:
		logg.Warn("Audio index unreadable, rebuilding", zap.Error(err))
	}

	index, err = audioindex.BuildFromFilesystem(ctx, cfg.Voice.OutputRoot, cfg.Voice.LanguageCode, []string{cfg.Voice.AudioExtension})
	if err != nil {
		return nil, fmt.Errorf("failed to build audio index: %w", err)
	}
	if err := os.MkdirAll(cfg.Voice.OutputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output root: %w", err)
	}
	if err := index.Save(path); err != nil {
		return nil, err
	}
	return index, nil
}

func ttsConfig(cfg *config.Config) tts.Config {
	voices := make(map[audioindex.Gender]tts.Voice, 2)
	if cfg.TTS.MaleVoiceID != "" {
		voices[audioindex.GenderMale] = tts.Voice{ID: cfg.TTS.MaleVoiceID, Stability: cfg.TTS.Stability, SimilarityBoost: cfg.TTS.SimilarityBoost}
	}
	if cfg.TTS.FemaleVoiceID != "" {
		voices[audioindex.GenderFemale] = tts.Voice{ID: cfg.TTS.FemaleVoiceID, Stability: cfg.TTS.Stability, SimilarityBoost: cfg.TTS.SimilarityBoost}
	}
	return tts.Config{
		BaseURL:           cfg.TTS.BaseURL,
		ApiKey:            cfg.TTS.ApiKey,
		ModelID:           cfg.TTS.ModelID,
		OutputFormat:      cfg.TTS.OutputFormat,
		Voices:            voices,
		IncludeObjectives: cfg.TTS.IncludeObjectives,
		Timeout:           time.Duration(cfg.TTS.TimeoutSeconds) * time.Second,
		OutputRoot:        cfg.Voice.OutputRoot,
		Extension:         cfg.Voice.AudioExtension,
	}
}
