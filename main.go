package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"agency_ops/config"
	"agency_ops/database"
	"agency_ops/handlers"
	"agency_ops/lock"
	"agency_ops/repository"
	"agency_ops/routes"
	"agency_ops/services"
	"agency_ops/utils"
)

func main() {
	generateKey := flag.Bool("generate-api-key", false, "print a new metrics API key and its bcrypt hash, then exit")
	migrateOnly := flag.Bool("migrate", false, "migrate the schema, seed default rules, then exit")
	flag.Parse()

	if *generateKey {
		if err := printAPIKey(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg := config.Load()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger, *migrateOnly); err != nil {
		logger.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, migrateOnly bool) error {
	if cfg.JWTSecret == "" && cfg.IsProduction() {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	utils.SetJWTSecret(cfg.JWTSecret)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	if _, err := database.SeedDefaultRules(db); err != nil {
		return err
	}
	if migrateOnly {
		logger.Info("migration finished")
		return nil
	}

	var redisClient *redis.Client
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis.Enabled() {
		redisClient, err = database.NewRedisClient(cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient, "agency_ops:lock:", cfg.LockTTL)
	} else {
		logger.Warn("REDIS_HOST not set, month locks only cover this process")
	}

	if cfg.MetricsAPIKeyHash == "" {
		logger.Warn("METRICS_API_KEY_HASH not set, metric ingestion is disabled")
	}

	validate := validator.New()
	commissionService := services.NewCommissionService(repository.NewCommissionRepository(db), locker, logger)
	ruleService := services.NewRuleService(repository.NewRuleRepository(db), validate, logger)
	metricService := services.NewMetricService(repository.NewMetricRepository(db), validate)

	app := config.SetupApp(cfg, routes.Dependencies{
		Commissions:       handlers.NewCommissionHandler(commissionService, logger),
		Rules:             handlers.NewRuleHandler(ruleService, logger),
		Metrics:           handlers.NewMetricHandler(metricService, logger),
		Health:            handlers.NewHealthHandler(db, redisClient),
		MetricsAPIKeyHash: cfg.MetricsAPIKeyHash,
		APIKeyLimiter:     utils.NewAttemptLimiter(5, 15*time.Minute),
	})

	return config.StartServer(app, cfg.ServerPort)
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func printAPIKey() error {
	key, err := utils.GenerateAPIKey(40)
	if err != nil {
		return err
	}
	hash, err := utils.HashAPIKey(key)
	if err != nil {
		return err
	}
	fmt.Printf("API key (give to the ingestion job): %s\n", key)
	fmt.Printf("METRICS_API_KEY_HASH=%s\n", hash)
	return nil
}
