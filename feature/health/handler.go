package health

import (
	"errors"

	"inventory-sync/core/config"
	"inventory-sync/core/connector"
	"inventory-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for health checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the health routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/health")
	group.Get("/", h.HandleHealth)
	group.Get("/runlog", h.HandleRunLog)
	group.Get("/:store", h.HandleStoreHealth)
}

// HandleHealth probes every configured store.
// @Summary Connector Health
// @Description Probes the ERP and storefront connectors of every store. Reports connectivity only, not data freshness.
// @Tags health
// @Produce json
// @Success 200 {object} Report "All stores reachable"
// @Failure 503 {object} Report "At least one connector is down"
// @Router /health [get]
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	report := h.service.CheckAll(c.UserContext())
	return c.Status(statusCode(report.Status)).JSON(report)
}

// HandleStoreHealth probes one store.
// @Summary Store Health
// @Tags health
// @Produce json
// @Param store path string true "Store name"
// @Success 200 {object} StoreHealth "Store reachable"
// @Failure 404 {object} map[string]string "Unknown store"
// @Failure 503 {object} StoreHealth "At least one connector is down"
// @Router /health/{store} [get]
func (h *Handler) HandleStoreHealth(c *fiber.Ctx) error {
	store := c.Params("store")

	sh, err := h.service.CheckStore(c.UserContext(), store)
	if err != nil {
		if errors.Is(err, config.ErrUnknownStore) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(statusCode(sh.Status)).JSON(sh)
}

// HandleRunLog checks the run-log schema.
// @Summary Run Log Check
// @Description Verifies the run-log table has every column the sync writes, and that the snapshot archive is reachable when enabled.
// @Tags health
// @Produce json
// @Success 200 {object} RunLogReport "Run log usable"
// @Failure 503 {object} RunLogReport "Schema mismatch or store unreachable"
// @Router /health/runlog [get]
func (h *Handler) HandleRunLog(c *fiber.Ctx) error {
	report := h.service.CheckRunLog(c.UserContext())
	if !report.Healthy() {
		logger.WithRayID(h.service.logger, c).Warn("Run log check failed", zap.Strings("errors", report.Errors))
		return c.Status(fiber.StatusServiceUnavailable).JSON(report)
	}
	return c.JSON(report)
}

func statusCode(s connector.Status) int {
	if s == connector.StatusDown {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusOK
}
