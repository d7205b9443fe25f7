package routes

import (
	"github.com/gofiber/fiber/v2"

	"agency_ops/handlers"
	"agency_ops/middleware"
	"agency_ops/utils"
)

// RegisterMetricRoutes registers the ingestion endpoint, authenticated by API key
// instead of a user token.
func RegisterMetricRoutes(api fiber.Router, h *handlers.MetricHandler, apiKeyHash string, limiter *utils.AttemptLimiter) {
	api.Put("/metrics", middleware.APIKeyAuth(apiKeyHash, limiter), h.Record)
}
