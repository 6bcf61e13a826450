package cmd

import (
	"fmt"
	"os"

	"quest-voice/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "quest-voice",
	Short: "Quest voice-over synchronization",
	Long: `Quest Voice keeps TTS voice-over in step with an evolving quest catalog.
It detects new and changed quests against the last snapshot, regenerates only
what changed and reports voicing progress per zone.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// configPath is the directory holding config.yaml and .env.
var configPath string

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with ISO8601 timestamps suits a CLI failure.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml and .env")
}
