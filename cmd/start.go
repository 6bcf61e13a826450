package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"quest-voice/core/loader"
	"quest-voice/core/logger"
	"quest-voice/core/middleware/auth"
	"quest-voice/core/middleware/rayid"
	"quest-voice/feature/integrity"
	"quest-voice/feature/voicesync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "quest-voice/docs/swagger"
)

// @title Quest Voice API
// @version 1.0
// @description API for quest voice-over synchronization and progress reporting.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the quest voice server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Configuration, logger, stores and service
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		logg := rt.logger
		defer logg.Sync()
		if rt.generatorErr != nil {
			logg.Warn("TTS generator disabled, apply runs will fail every quest", zap.Error(rt.generatorErr))
		}

		// 2. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ReadTimeout:           rt.cfg.Server.ReadTimeout(),
		})

		// 3. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(voicesync.NewFeature(rt.service))
		mgr.Register(integrity.NewFeature(rt.checker))

		// 4. RayID first so every log line carries it
		app.Use(rayid.New())

		// 5. Request logging
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 6. Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// 7. Auth protects everything registered after it
		app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey, SkipPrefixes: []string{"/swagger"}}))

		// 8. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}
		logg.Info("Features loaded", zap.Strings("features", mgr.Names()))

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("address", rt.cfg.Server.Address()))
			if err := app.Listen(rt.cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown: stop a running apply before closing the listener
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		if rt.service.Cancel() {
			logg.Info("Cancelled running apply")
			_ = rt.service.Wait(cmd.Context())
		}
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
