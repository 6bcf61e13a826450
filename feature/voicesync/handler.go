package voicesync

import (
	"errors"
	"net/url"

	"quest-voice/core/logger"
	"quest-voice/feature/progress"
	"quest-voice/feature/snapshot"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the sync engine and progress reporting.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync, progress and audio index routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/scan", h.HandleScan)
	group.Post("/apply", h.HandleApply)
	group.Post("/cancel", h.HandleCancel)
	group.Get("/status", h.HandleStatus)
	group.Get("/snapshots", h.HandleListSnapshots)
	group.Post("/snapshot/initial", h.HandleInitialSnapshot)

	prog := app.Group("/progress")
	prog.Get("/", h.HandleProgress)
	prog.Get("/zones", h.HandleZones)
	prog.Get("/zones/:zone/quests", h.HandleZoneQuests)

	app.Post("/audio-index/rebuild", h.HandleRebuildIndex)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrRunInProgress), errors.Is(err, ErrLocked), errors.Is(err, ErrStaleScan), errors.Is(err, snapshot.ErrVersionExists):
		return fiber.StatusConflict
	case errors.Is(err, ErrNoScan), errors.Is(err, snapshot.ErrInvalidVersion):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		logger.WithRayID(h.service.logger, c).Error(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// HandleScan compares the quest catalog against the last snapshot.
// @Summary Scan for changes
// @Description Load the quest catalog and classify every quest as new, changed, removed or unchanged.
// @Tags sync
// @Produce json
// @Success 200 {object} voicesync.ScanResult "Scan result"
// @Failure 409 {object} map[string]string "Run in progress"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/scan [post]
func (h *Handler) HandleScan(c *fiber.Ctx) error {
	result, err := h.service.Scan(c.Context(), nil)
	if err != nil {
		return h.fail(c, "Scan failed", err)
	}
	if !result.Success {
		return c.Status(fiber.StatusInternalServerError).JSON(result)
	}
	return c.JSON(result)
}

// applyRequest is the body of POST /sync/apply. Missing fields use the defaults.
type applyRequest struct {
	OnlyNewAndChanged *bool  `json:"only_new_and_changed"`
	AutoExportAddon   bool   `json:"auto_export_addon"`
	QuestIDs          []int  `json:"quest_ids"`
	DataVersion       string `json:"data_version"`
}

// HandleApply starts an apply run in the background.
// @Summary Apply changes
// @Description Regenerate audio for the targets of the last scan. Poll /sync/status for progress.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body applyRequest false "Apply options"
// @Success 202 {object} map[string]string "Run started"
// @Failure 400 {object} map[string]string "No successful scan"
// @Failure 409 {object} map[string]string "Run in progress or scan already applied"
// @Router /sync/apply [post]
func (h *Handler) HandleApply(c *fiber.Ctx) error {
	var req applyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	opts := DefaultApplyOptions()
	if req.OnlyNewAndChanged != nil {
		opts.OnlyNewAndChanged = *req.OnlyNewAndChanged
	}
	opts.AutoExportAddon = req.AutoExportAddon
	opts.QuestIDs = req.QuestIDs
	opts.DataVersion = req.DataVersion
	if opts.DataVersion != "" {
		if err := snapshot.ValidateVersion(opts.DataVersion); err != nil {
			return h.fail(c, "Invalid data version", err)
		}
	}

	runID, err := h.service.StartApply(opts)
	if err != nil {
		return h.fail(c, "Apply failed to start", err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"run_id": runID})
}

// HandleCancel cancels the running apply.
// @Summary Cancel apply
// @Tags sync
// @Produce json
// @Success 200 {object} map[string]bool "Whether a run was cancelled"
// @Router /sync/cancel [post]
func (h *Handler) HandleCancel(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"cancelled": h.service.Cancel()})
}

// HandleStatus returns the current state, progress and last results.
// @Summary Sync status
// @Tags sync
// @Produce json
// @Success 200 {object} voicesync.Status "Status"
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleListSnapshots lists stored snapshot versions.
// @Summary List snapshots
// @Tags sync
// @Produce json
// @Success 200 {array} snapshot.SetInfo "Snapshots, newest first"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/snapshots [get]
func (h *Handler) HandleListSnapshots(c *fiber.Ctx) error {
	list, err := h.service.ListSnapshots(c.Context())
	if err != nil {
		return h.fail(c, "Listing snapshots failed", err)
	}
	if list == nil {
		list = []snapshot.SetInfo{}
	}
	return c.JSON(list)
}

type initialSnapshotRequest struct {
	BuildTag string `json:"build_tag"`
}

// HandleInitialSnapshot adopts the current catalog as baseline.
// @Summary Create initial snapshot
// @Description Record the current catalog as baseline without generating audio.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body initialSnapshotRequest false "Build tag"
// @Success 201 {object} snapshot.SetInfo "Created snapshot"
// @Failure 409 {object} map[string]string "Version exists or run in progress"
// @Router /sync/snapshot/initial [post]
func (h *Handler) HandleInitialSnapshot(c *fiber.Ctx) error {
	var req initialSnapshotRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	set, err := h.service.CreateInitialSnapshot(c.Context(), req.BuildTag)
	if err != nil {
		return h.fail(c, "Initial snapshot failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(set.Info(true))
}

// HandleProgress returns catalog totals and per-zone progress.
// @Summary Voicing progress
// @Tags progress
// @Produce json
// @Param source query string false "Audio source: local or storage"
// @Success 200 {object} voicesync.ProgressReport "Progress"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /progress [get]
func (h *Handler) HandleProgress(c *fiber.Ctx) error {
	report, err := h.service.Progress(c.Context(), c.Query("source"))
	if err != nil {
		return h.fail(c, "Progress failed", err)
	}
	return c.JSON(report)
}

// HandleZones returns per-zone progress only.
// @Summary Zone progress
// @Tags progress
// @Produce json
// @Param source query string false "Audio source: local or storage"
// @Success 200 {array} progress.ZoneProgress "Zones"
// @Router /progress/zones [get]
func (h *Handler) HandleZones(c *fiber.Ctx) error {
	report, err := h.service.Progress(c.Context(), c.Query("source"))
	if err != nil {
		return h.fail(c, "Zone progress failed", err)
	}
	return c.JSON(report.Zones)
}

// HandleZoneQuests lists a zone's quests matching a filter.
// @Summary Zone quests
// @Tags progress
// @Produce json
// @Param zone path string true "Zone name"
// @Param filter query string false "missing, problem, missing_and_problem or all"
// @Param source query string false "Audio source: local or storage"
// @Success 200 {array} quests.Quest "Quests"
// @Failure 400 {object} map[string]string "Invalid filter"
// @Router /progress/zones/{zone}/quests [get]
func (h *Handler) HandleZoneQuests(c *fiber.Ctx) error {
	zone, err := url.PathUnescape(c.Params("zone"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid zone"})
	}
	mode, err := progress.ParseFilterMode(c.Query("filter"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	list, err := h.service.ZoneQuests(c.Context(), zone, mode, c.Query("source"))
	if err != nil {
		return h.fail(c, "Zone quests failed", err)
	}
	return c.JSON(fiber.Map{"zone": zone, "filter": mode, "count": len(list), "quests": list})
}

// HandleRebuildIndex rescans the audio directory.
// @Summary Rebuild audio index
// @Tags audio-index
// @Produce json
// @Success 200 {object} map[string]int "Entry count"
// @Failure 409 {object} map[string]string "Run in progress or output root locked"
// @Router /audio-index/rebuild [post]
func (h *Handler) HandleRebuildIndex(c *fiber.Ctx) error {
	n, err := h.service.RebuildIndex(c.Context())
	if err != nil {
		return h.fail(c, "Audio index rebuild failed", err)
	}
	return c.JSON(fiber.Map{"entries": n})
}
