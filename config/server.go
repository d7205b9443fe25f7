package config

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
)

// StartServer listens on port until SIGINT or SIGTERM, then shuts down gracefully.
func StartServer(app *fiber.App, port string) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Listen(fmt.Sprintf(":%s", port))
	}()

	slog.Info("server started", slog.String("port", port))

	select {
	case err := <-errChan:
		return fmt.Errorf("listen on %s: %w", port, err)
	case sig := <-sigChan:
		slog.Info("shutting down", slog.String("signal", sig.String()))
	}

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
