// Package config provides configuration management for Quest Voice.
//
// It utilizes Viper for loading configuration from environment variables,
// an optional config.yaml and an optional .env file (godotenv).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP API settings (port, API key)
//   - Database: MySQL or SQLite connection details
//   - Storage: S3/MinIO mirror for audio and add-on packages
//   - Log: Logging level and format
//   - Voice: quest source, snapshot backend, audio layout and text policy
//   - TTS: synthesis API credentials and voice profiles
//   - Addon: add-on export settings
//
// Defaults come from `default` struct tags; every key can be overridden by an
// environment variable where dots become underscores (VOICE_LANGUAGE_CODE).
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Voice.OutputRoot)
package config
