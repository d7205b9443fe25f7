package routes

import (
	"github.com/gofiber/fiber/v2"

	"agency_ops/handlers"
	"agency_ops/middleware"
	"agency_ops/utils"
)

// RegisterRuleRoutes registers /api/commission-rules. Mutations are admin only.
func RegisterRuleRoutes(api fiber.Router, h *handlers.RuleHandler) {
	rules := api.Group("/commission-rules", middleware.JWTAuth())
	admin := middleware.RequireRole(utils.RoleAdmin)

	rules.Get("/", h.List)
	rules.Get("/coverage", h.Coverage) // before /:id
	rules.Get("/:id", h.Get)

	rules.Post("/", admin, h.Create)
	rules.Put("/:id", admin, h.Update)
	rules.Delete("/:id", admin, h.Delete)
	rules.Put("/:id/activate", admin, h.Activate)
	rules.Put("/:id/deactivate", admin, h.Deactivate)
}
