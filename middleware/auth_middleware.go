// Package middleware holds the Fiber authentication middleware.
package middleware

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"agency_ops/utils"
)

// Context keys set by JWTAuth.
const (
	LocalUserID = "user_id"
	LocalEmail  = "email"
	LocalRole   = "role"
)

// JWTAuth requires a valid Bearer token and stores the caller identity in c.Locals.
func JWTAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := utils.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or malformed authorization token",
			})
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			slog.Debug("token rejected", slog.String("path", c.Path()), slog.String("error", err.Error()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, claims.Email)
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	}
}

// RequireRole lets the request through only when JWTAuth stored one of roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalRole).(string)
		if !allowed[role] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "insufficient permissions",
			})
		}
		return c.Next()
	}
}

// CurrentUserID returns the id stored by JWTAuth, or "" when unauthenticated.
func CurrentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

// APIKeyAuth checks the X-API-Key header against a bcrypt hash. Callers are locked out
// per IP by limiter after repeated failures. An empty hash rejects every request.
func APIKeyAuth(hash string, limiter *utils.AttemptLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if locked, remaining := limiter.Locked(ip); locked {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(remaining.Seconds())+1))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many failed attempts, try again later",
			})
		}

		if !utils.CheckAPIKey(hash, c.Get("X-API-Key")) {
			if limiter.RecordFailure(ip) {
				slog.Warn("api key lockout", slog.String("ip", ip))
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid api key",
			})
		}

		limiter.Reset(ip)
		return c.Next()
	}
}
