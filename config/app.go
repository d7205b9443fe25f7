package config

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"agency_ops/routes"
)

// SetupApp creates the Fiber application.
// It:
//  1. configures Fiber (body limit, timeouts, JSON codec, {"error": ...} error handler)
//  2. installs the access log, panic recovery and CORS middleware
//  3. registers every route from deps
//
// The returned app is ready for StartServer or app.Test.
func SetupApp(cfg *Config, deps routes.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		ServerHeader:  "Agency Ops",
		AppName:       "Agency Ops API",
		BodyLimit:     1 * 1024 * 1024,
		ErrorHandler:  errorHandler,
		JSONEncoder:   json.Marshal,
		JSONDecoder:   json.Unmarshal,
		ReadTimeout:   60 * time.Second,
		WriteTimeout:  60 * time.Second,
		IdleTimeout:   60 * time.Second,
	})

	app.Use(logger.New(logger.Config{
		Format:     "${time} ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		Output:     os.Stdout,
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key",
		MaxAge:       int(12 * time.Hour.Seconds()),
	}))

	routes.SetupRoutes(app, deps)

	return app
}

// errorHandler renders errors that reach Fiber as {"error": message}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
