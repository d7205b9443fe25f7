package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"agency_ops/models"
	"agency_ops/services"
)

// MetricHandler receives monthly client metrics from the ingestion process.
type MetricHandler struct {
	service *services.MetricService
	logger  *slog.Logger
}

// NewMetricHandler creates a MetricHandler.
func NewMetricHandler(service *services.MetricService, logger *slog.Logger) *MetricHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricHandler{service: service, logger: logger}
}

// Record upserts one client's metric for a month.
// PUT /api/metrics
func (h *MetricHandler) Record(c *fiber.Ctx) error {
	var req models.ClientMetricRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	metric, err := h.service.Record(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"data": metric})
}
