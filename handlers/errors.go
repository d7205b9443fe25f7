// Package handlers exposes the services over HTTP with Fiber.
package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"agency_ops/lock"
	"agency_ops/services"
)

// respondError renders err as {"error": message} with the status its kind maps to.
// Unexpected failures are logged and answered with a generic message.
func respondError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Message})
	case errors.Is(err, services.ErrNoActiveRules):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no active commission rules configured"})
	case errors.Is(err, services.ErrRuleNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "commission rule not found"})
	case errors.Is(err, services.ErrClientNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "client not found"})
	case errors.Is(err, lock.ErrLockTimeout):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "a calculation for this month is already running"})
	}

	logger.Error("request failed",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
}
