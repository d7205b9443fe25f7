// Package database opens the relational store and the Redis client,
// and keeps the schema migrated.
package database

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"agency_ops/models"
)

// Config selects and reaches the relational store.
type Config struct {
	Driver   string // mysql or postgres
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	LogLevel string // silent, error, warn, info
}

// Open connects to the database selected by cfg.Driver.
// It:
//  1. for mysql, creates the schema when the server does not have it yet
//  2. opens the connection with a GORM logger at cfg.LogLevel
//  3. sizes the connection pool
//
// Migrate must still be called before the tables are used.
func Open(cfg Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{Logger: newLogger(cfg.LogLevel)}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		if err := ensureMySQLDatabase(cfg); err != nil {
			return nil, err
		}
		dialector = mysql.Open(mysqlDSN(cfg, true))
	case "postgres":
		dialector = postgres.Open(postgresDSN(cfg))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want mysql or postgres)", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if cfg.Driver == "mysql" {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci")
	}

	slog.Info("database connected",
		slog.String("driver", cfg.Driver),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("name", cfg.Name),
	)
	return db, nil
}

// ensureMySQLDatabase creates the schema when the server does not have it yet.
func ensureMySQLDatabase(cfg Config) error {
	tempDB, err := gorm.Open(mysql.Open(mysqlDSN(cfg, false)), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return fmt.Errorf("connect to mysql server: %w", err)
	}
	defer func() {
		if sqlDB, err := tempDB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	createSQL := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", cfg.Name)
	if err := tempDB.Exec(createSQL).Error; err != nil {
		return fmt.Errorf("create database %s: %w", cfg.Name, err)
	}
	return nil
}

func mysqlDSN(cfg Config, withDB bool) string {
	name := ""
	if withDB {
		name = cfg.Name
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&collation=utf8mb4_unicode_ci",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, name)
}

func postgresDSN(cfg Config) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port)
}

func newLogger(level string) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  parseLogLevel(level),
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Migrate creates or updates the tables, referenced tables first.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.TeamMember{},
		&models.Client{},
		&models.ClientMetric{},
		&models.CommissionRule{},
		&models.Commission{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// DefaultRules are the tiers a fresh installation starts with.
func DefaultRules() []models.CommissionRule {
	three := decimal.NewFromInt(3)
	five := decimal.NewFromInt(5)
	eight := decimal.NewFromInt(8)

	return []models.CommissionRule{
		{Name: "No commission", MinRoas: decimal.Zero, MaxRoas: &three, Percentage: decimal.Zero, IsActive: true},
		{Name: "Level 1", MinRoas: three, MaxRoas: &five, Percentage: decimal.NewFromInt(5), IsActive: true},
		{Name: "Level 2", MinRoas: five, MaxRoas: &eight, Percentage: decimal.NewFromInt(8), IsActive: true},
		{Name: "Level 3", MinRoas: eight, Percentage: decimal.NewFromInt(12), IsActive: true},
	}
}

// SeedDefaultRules inserts DefaultRules when no rule exists yet.
// It reports whether anything was inserted.
func SeedDefaultRules(db *gorm.DB) (bool, error) {
	var count int64
	if err := db.Model(&models.CommissionRule{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count commission rules: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	rules := DefaultRules()
	if err := db.Create(&rules).Error; err != nil {
		return false, fmt.Errorf("seed commission rules: %w", err)
	}
	slog.Info("default commission rules seeded", slog.Int("count", len(rules)))
	return true, nil
}
