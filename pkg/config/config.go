// Package config loads daysync configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	UserID   string

	// AuthMode selects the identity gate: static (configured user id) or
	// token (persisted OAuth2 token).
	AuthMode string

	// Storage backend for the local key-value store: sqlite, redis or memory.
	StorageBackend    string
	SQLitePath        string
	RedisURL          string
	StorageQuotaBytes int64

	// Remote task store. Empty DatabaseURL runs in local-only mode.
	DatabaseURL string

	// Cache tuning
	CacheTTL           time.Duration
	CacheMaxItems      int
	CacheMaxItemBytes  int
	CacheRetention     time.Duration
	CacheQuotaHighWater float64

	// Circuit breaker around the remote store
	BreakerFailureThreshold int
	BreakerTimeout          time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		UserID:   getEnv("DAYSYNC_USER_ID", "00000000-0000-0000-0000-000000000001"),
		AuthMode: getEnv("DAYSYNC_AUTH_MODE", "static"),

		StorageBackend:    getEnv("DAYSYNC_STORAGE_BACKEND", "sqlite"),
		SQLitePath:        getEnv("DAYSYNC_SQLITE_PATH", getDefaultSQLitePath()),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		StorageQuotaBytes: getInt64Env("DAYSYNC_STORAGE_QUOTA_BYTES", 0),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		CacheTTL:            getDurationEnv("DAYSYNC_CACHE_TTL", 7*24*time.Hour),
		CacheMaxItems:       getIntEnv("DAYSYNC_CACHE_MAX_ITEMS", 200),
		CacheMaxItemBytes:   getIntEnv("DAYSYNC_CACHE_MAX_ITEM_BYTES", 5000),
		CacheRetention:      getDurationEnv("DAYSYNC_CACHE_RETENTION", 30*24*time.Hour),
		CacheQuotaHighWater: getFloatEnv("DAYSYNC_CACHE_QUOTA_HIGH_WATER", 0.8),

		BreakerFailureThreshold: getIntEnv("DAYSYNC_BREAKER_FAILURES", 5),
		BreakerTimeout:          getDurationEnv("DAYSYNC_BREAKER_TIMEOUT", 30*time.Second),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LocalOnly reports whether no remote store is configured.
func (c *Config) LocalOnly() bool {
	return c.DatabaseURL == ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getDefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".daysync/daysync.db"
	}
	return home + "/.daysync/daysync.db"
}
