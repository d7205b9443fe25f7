package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"agency_ops/models"
	"agency_ops/services"
)

// calculateTimeout bounds a calculation request, including the wait for a month lock
// held by another run.
const calculateTimeout = time.Minute

// CommissionHandler serves the commission endpoints.
type CommissionHandler struct {
	service *services.CommissionService
	logger  *slog.Logger
}

// NewCommissionHandler creates a CommissionHandler.
func NewCommissionHandler(service *services.CommissionService, logger *slog.Logger) *CommissionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommissionHandler{service: service, logger: logger}
}

// calculateRequest is the body of POST /api/commissions/calculate.
type calculateRequest struct {
	Month string `json:"month"` // YYYY-MM
}

// Calculate runs the commission engine for one month.
// POST /api/commissions/calculate with body {"month": "YYYY-MM"}
//
// Responds 200 with {calculated, month, commissions}; 400 for a bad month or when no
// rule is active; 409 when another run holds the month past calculateTimeout; 500
// with a generic message for store failures.
func (h *CommissionHandler) Calculate(c *fiber.Ctx) error {
	var req calculateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), calculateTimeout)
	defer cancel()

	result, err := h.service.CalculateCommissions(ctx, req.Month)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(result)
}

// List returns commissions joined with client, team member and rule.
// GET /api/commissions?month=YYYY-MM&team_member_id=...
func (h *CommissionHandler) List(c *fiber.Ctx) error {
	var query models.CommissionQuery
	if err := c.QueryParser(&query); err != nil {
		return badBody(c)
	}

	commissions, err := h.service.ListCommissions(c.UserContext(), query)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(commissions)
}

// Summary groups commissions per team member with totals.
// GET /api/commissions/summary?month=YYYY-MM
func (h *CommissionHandler) Summary(c *fiber.Ctx) error {
	var query models.CommissionQuery
	if err := c.QueryParser(&query); err != nil {
		return badBody(c)
	}

	summary, err := h.service.SummarizeByTeamMember(c.UserContext(), query)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(summary)
}
