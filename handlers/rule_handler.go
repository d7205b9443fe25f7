package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"agency_ops/models"
	"agency_ops/services"
)

// RuleHandler serves commission rule administration.
type RuleHandler struct {
	service *services.RuleService
	logger  *slog.Logger
}

// NewRuleHandler creates a RuleHandler.
func NewRuleHandler(service *services.RuleService, logger *slog.Logger) *RuleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleHandler{service: service, logger: logger}
}

// List returns every rule, or only active/inactive ones with ?active=.
func (h *RuleHandler) List(c *fiber.Ctx) error {
	var query models.CommissionRuleQuery
	if err := c.QueryParser(&query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "active must be true or false"})
	}

	rules, err := h.service.List(c.UserContext(), query)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"data": rules})
}

// Get returns one rule.
func (h *RuleHandler) Get(c *fiber.Ctx) error {
	rule, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"data": rule})
}

// Create adds a rule.
func (h *RuleHandler) Create(c *fiber.Ctx) error {
	var req models.CommissionRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	rule, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "commission rule created",
		"data":    rule,
	})
}

// Update replaces a rule's fields.
func (h *RuleHandler) Update(c *fiber.Ctx) error {
	var req models.CommissionRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	rule, err := h.service.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"message": "commission rule updated",
		"data":    rule,
	})
}

// Delete removes a rule. Existing commissions keep their amounts.
func (h *RuleHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "commission rule deleted"})
}

// Activate puts a rule back into calculations.
func (h *RuleHandler) Activate(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

// Deactivate takes a rule out of calculations.
func (h *RuleHandler) Deactivate(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *RuleHandler) setActive(c *fiber.Ctx, active bool) error {
	rule, err := h.service.SetActive(c.UserContext(), c.Params("id"), active)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	message := "commission rule deactivated"
	if active {
		message = "commission rule activated"
	}
	return c.JSON(fiber.Map{"message": message, "data": rule})
}

// Coverage reports gaps and overlaps between active tiers.
func (h *RuleHandler) Coverage(c *fiber.Ctx) error {
	coverage, err := h.service.Coverage(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(coverage)
}
