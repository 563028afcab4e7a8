package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"catalog-backend/internal/infrastructure/database"
)

// Storage drivers
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables (+ .env qua godotenv ở main)
type Config struct {
	App       AppConfig
	Database  *database.DBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Catalog   CatalogConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

// RateLimitConfig - fixed window limiter trên redis, theo client IP
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// =====================================================
// CATALOG CONFIGURATION
// =====================================================

type CatalogConfig struct {
	StorageDriver string // postgres, memory
	AutoSchema    bool   // CREATE TABLE IF NOT EXISTS lúc startup
	ReplaceUpsert bool   // PUT trên id chưa tồn tại: true = tạo mới, false = 404
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	dbCfg, err := LoadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	window, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Catalog API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: dbCfg,
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnvBool("RATE_LIMIT_ENABLED", false),
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
			Window:   window,
		},
		Catalog: CatalogConfig{
			StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),
			AutoSchema:    getEnvBool("DB_AUTO_SCHEMA", true),
			ReplaceUpsert: getEnvBool("CATALOG_REPLACE_UPSERT", true),
		},
	}

	// Validate critical config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	switch c.Catalog.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Catalog.StorageDriver)
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Requests <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}

	// Production environment
	if c.App.Environment == "production" {
		if c.Catalog.StorageDriver == StorageMemory {
			return fmt.Errorf("STORAGE_DRIVER=memory is not allowed in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	return nil
}

// IsDevelopment - dùng cho gin mode và console logger
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
