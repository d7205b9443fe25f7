// Package config loads the service configuration and builds the Fiber application.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"agency_ops/database"
)

// Config is the full service configuration, read from the environment.
type Config struct {
	Env               string // "production" enforces a JWT secret
	ServerPort        string
	CORSOrigins       string
	JWTSecret         string
	MetricsAPIKeyHash string        // bcrypt hash of the ingestion API key
	LockTTL           time.Duration // upper bound on how long one calculation holds its month lock
	Database          database.Config
	Redis             database.RedisConfig
}

// Load reads .env when present, then builds the configuration from the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded, using process environment")
	}
	return New()
}

// New builds the configuration from the current environment.
func New() *Config {
	driver := strings.ToLower(getEnvOrDefault("DB_DRIVER", "mysql"))
	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return &Config{
		Env:               getEnvOrDefault("ENV", "development"),
		ServerPort:        getEnvOrDefault("SERVER_PORT", "8080"),
		CORSOrigins:       getEnvOrDefault("CORS_ORIGINS", "*"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		MetricsAPIKeyHash: os.Getenv("METRICS_API_KEY_HASH"),
		LockTTL:           getDurationOrDefault("LOCK_TTL", 2*time.Minute),
		Database: database.Config{
			Driver:   driver,
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", defaultPort),
			User:     getEnvOrDefault("DB_USER", "root"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnvOrDefault("DB_NAME", "agency_ops"),
			LogLevel: getEnvOrDefault("DB_LOG_LEVEL", "warn"),
		},
		Redis: database.RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
	}
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", slog.String("key", key), slog.String("value", value))
		return defaultValue
	}
	return n
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration in environment, using default", slog.String("key", key), slog.String("value", value))
		return defaultValue
	}
	return d
}
