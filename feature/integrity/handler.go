package integrity

import (
	"errors"

	"quest-voice/core/logger"
	"quest-voice/core/reconcile"
	"quest-voice/feature/voicesync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/structure", h.HandleStructureCheck)
	group.Get("/audio", h.HandleAudioCheck)
	group.Post("/audio/sync", h.HandleAudioSync)
}

// HandleStructureCheck checks and optionally fixes structure.
// @Summary Check Structure
// @Description Checks the local audio directories and the storage folders of the mirror. Optionally creates missing ones.
// @Tags integrity
// @Accept json
// @Produce json
// @Param fix query boolean false "Create missing folders"
// @Success 200 {object} StructureReport "Structure Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/structure [get]
func (h *Handler) HandleStructureCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	report, err := h.service.CheckStructure(c.Context())
	if err != nil {
		l.Error("Structure check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if len(report.MissingLocal) > 0 || len(report.MissingStorage) > 0 {
		l.Warn("Missing folders detected",
			zap.Strings("local", report.MissingLocal),
			zap.Strings("storage", report.MissingStorage))

		if fix {
			l.Info("Attempting to fix missing folders")
			if err := h.service.FixStructure(c.Context(), report); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to fix structure",
					"details": err.Error(),
				})
			}
		}
	}

	return c.JSON(report)
}

// HandleAudioCheck reconciles catalog, local audio and the storage mirror.
// @Summary Check Audio Mirror
// @Description Compares expected quest audio with the local tree and the storage mirror. Read-only.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} reconcile.Plan "Reconcile Plan"
// @Failure 400 {object} map[string]string "Storage not configured"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/audio [get]
func (h *Handler) HandleAudioCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	plan, err := h.service.CheckAudio(c.Context())
	if err != nil {
		return h.fail(c, l, "Audio check failed", err)
	}

	l.Info("Audio check completed",
		zap.Int("total", plan.Summary.TotalItems),
		zap.Int("missing_storage", plan.Summary.MissingStorage),
		zap.Int("orphaned", plan.Summary.Orphaned))
	return c.JSON(plan)
}

// HandleAudioSync uploads and purges mirror objects.
// @Summary Sync Audio Mirror
// @Description Uploads local audio missing from storage and purges audio of quests no longer in the catalog. Nothing changes unless confirm=true.
// @Tags integrity
// @Accept json
// @Produce json
// @Param upload query boolean false "Upload local files missing from storage"
// @Param purge query boolean false "Delete audio of quests not in the catalog"
// @Param confirm query boolean false "Execute the plan"
// @Success 200 {object} SyncReport "Sync Report"
// @Failure 400 {object} map[string]string "Storage not configured"
// @Failure 409 {object} map[string]string "Output root locked"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/audio/sync [post]
func (h *Handler) HandleAudioSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	opts := reconcile.Options{
		DoUpload:  c.QueryBool("upload"),
		DoPurge:   c.QueryBool("purge"),
		Confirmed: c.QueryBool("confirm"),
	}
	opts.DryRun = !opts.Confirmed

	report, err := h.service.SyncAudio(c.Context(), opts)
	if err != nil {
		return h.fail(c, l, "Audio sync failed", err)
	}
	return c.JSON(report)
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrStorageDisabled):
		status = fiber.StatusBadRequest
	case errors.Is(err, voicesync.ErrLocked):
		status = fiber.StatusConflict
	default:
		l.Error(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
