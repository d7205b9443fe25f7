// Package routes registers the HTTP routes on the Fiber app.
package routes

import (
	"github.com/gofiber/fiber/v2"

	"agency_ops/handlers"
	"agency_ops/utils"
)

// Dependencies are the handlers and auth settings the routes are built from.
type Dependencies struct {
	Commissions *handlers.CommissionHandler
	Rules       *handlers.RuleHandler
	Metrics     *handlers.MetricHandler
	Health      *handlers.HealthHandler

	MetricsAPIKeyHash string
	APIKeyLimiter     *utils.AttemptLimiter
}

// SetupRoutes registers every route.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/health", deps.Health.Check)

	api := app.Group("/api")

	RegisterCommissionRoutes(api, deps.Commissions)
	RegisterRuleRoutes(api, deps.Rules)
	RegisterMetricRoutes(api, deps.Metrics, deps.MetricsAPIKeyHash, deps.APIKeyLimiter)
}
