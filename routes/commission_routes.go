package routes

import (
	"github.com/gofiber/fiber/v2"

	"agency_ops/handlers"
	"agency_ops/middleware"
	"agency_ops/utils"
)

// RegisterCommissionRoutes registers /api/commissions. Every authenticated user may read;
// triggering a calculation needs an admin or manager.
func RegisterCommissionRoutes(api fiber.Router, h *handlers.CommissionHandler) {
	commissions := api.Group("/commissions", middleware.JWTAuth())

	commissions.Get("/", h.List)
	commissions.Get("/summary", h.Summary)
	commissions.Post("/calculate", middleware.RequireRole(utils.RoleAdmin, utils.RoleManager), h.Calculate)
}
