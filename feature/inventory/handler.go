package inventory

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"inventory-sync/core/config"
	"inventory-sync/core/lock"
	"inventory-sync/core/logger"
	"inventory-sync/core/reconcile"
	"inventory-sync/core/runlog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Stats are the counters returned to the trigger caller.
type Stats struct {
	ERPCount        int `json:"erpCount"`
	StorefrontCount int `json:"storefrontCount"`
	Matched         int `json:"matched"`
	Updated         int `json:"updated"`
	Skipped         int `json:"skipped"`
	Errors          int `json:"errors"`
}

// SyncResponse is the body of a completed POST /sync.
type SyncResponse struct {
	Success       bool     `json:"success"`
	RunID         string   `json:"runId"`
	Store         string   `json:"store"`
	DryRun        bool     `json:"dryRun"`
	Status        string   `json:"status"`
	Stats         Stats    `json:"stats"`
	ErrorDetails  []string `json:"errorDetails"`
	NotMatched    int      `json:"notMatched"`
	NotInERP      int      `json:"notInErp"`
	DuplicateSKUs []string `json:"duplicateSkus,omitempty"`
	DurationMs    int64    `json:"durationMs"`

	NotMatchedSKUs []string `json:"notMatchedSkus,omitempty"`
	NotInERPSKUs   []string `json:"notInErpSkus,omitempty"`
}

// NewSyncResponse builds the response of a completed run.
func NewSyncResponse(state *reconcile.RunState) SyncResponse {
	r := state.Result
	return SyncResponse{
		Success: true,
		RunID:   state.RunID,
		Store:   state.Store,
		DryRun:  state.DryRun,
		Status:  string(state.Status),
		Stats: Stats{
			ERPCount:        r.ERPCount,
			StorefrontCount: r.StorefrontCount,
			Matched:         r.Matched,
			Updated:         r.Updated,
			Skipped:         r.Skipped,
			Errors:          r.ErrorCount,
		},
		ErrorDetails:  r.ErrorDetails,
		NotMatched:    r.NotMatched,
		NotInERP:      r.NotInERP,
		DuplicateSKUs: r.DuplicateSKUs,
		DurationMs:    r.DurationMs,

		NotMatchedSKUs: r.NotMatchedSKUs,
		NotInERPSKUs:   r.NotInERPSKUs,
	}
}

// Handler handles HTTP requests for inventory sync.
type Handler struct {
	service  *Service
	stores   []string
	logger   *zap.Logger
	validate *validator.Validate
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, stores []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, stores: stores, logger: logger, validate: validator.New()}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/", h.HandleSync)
	group.Get("/", h.HandleInfo)
	group.Get("/runs", h.HandleRecentRuns)
}

// HandleSync runs one reconciliation.
// @Summary Run Inventory Sync
// @Description Reconcile a store's storefront stock against the ERP. Write failures still return 200 with stats.errors > 0.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body SyncRequest false "Store and dry-run flag"
// @Success 200 {object} SyncResponse "Run completed"
// @Failure 400 {object} map[string]string "Bad request or unknown store"
// @Failure 409 {object} map[string]string "A run is already in progress"
// @Failure 500 {object} map[string]string "Configuration or fetch failure"
// @Router /sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req SyncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	req.Store = strings.ToLower(strings.TrimSpace(req.Store))
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// A started run finishes its writes even if the caller disconnects.
	state, err := h.service.Sync(context.WithoutCancel(c.UserContext()), req)
	if err != nil {
		status := statusFor(err)
		l.Error("Sync failed", zap.String("store", h.service.StoreName(req.Store)), zap.Int("status", status), zap.Error(err))
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(NewSyncResponse(state))
}

// HandleInfo describes the sync job.
// @Summary Sync Job Info
// @Tags sync
// @Produce json
// @Success 200 {object} map[string]interface{} "Job description"
// @Router /sync [get]
func (h *Handler) HandleInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "ok",
		"job":         "unleashed-inventory-sync",
		"description": "Syncs ERP stock on hand to storefront inventory levels",
		"stores":      h.stores,
	})
}

// HandleRecentRuns lists recent run records of a store.
// @Summary Recent Sync Runs
// @Tags sync
// @Produce json
// @Param store query string false "Store name (default store when omitted)"
// @Param limit query int false "Maximum rows (1-100)"
// @Success 200 {object} map[string]interface{} "Run records, newest first"
// @Failure 500 {object} map[string]string "Run log unavailable"
// @Router /sync/runs [get]
func (h *Handler) HandleRecentRuns(c *fiber.Ctx) error {
	store := h.service.StoreName(c.Query("store"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	runs, err := h.service.Recent(c.UserContext(), store, limit)
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Listing runs failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if runs == nil {
		runs = []runlog.CronJobLog{}
	}

	return c.JSON(fiber.Map{"store": store, "runs": runs})
}

func statusFor(err error) int {
	var cfgErr *config.ConfigurationError
	switch {
	case errors.Is(err, config.ErrUnknownStore):
		return fiber.StatusBadRequest
	case errors.As(err, &cfgErr):
		return fiber.StatusInternalServerError
	case errors.Is(err, lock.ErrLocked):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
