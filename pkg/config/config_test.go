package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/daysync/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "sqlite", cfg.StorageBackend)
	assert.Equal(t, "static", cfg.AuthMode)
	assert.True(t, cfg.LocalOnly())
	assert.Equal(t, 7*24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 200, cfg.CacheMaxItems)
	assert.Equal(t, 5000, cfg.CacheMaxItemBytes)
	assert.Equal(t, 30*24*time.Hour, cfg.CacheRetention)
	assert.InDelta(t, 0.8, cfg.CacheQuotaHighWater, 0.0001)
	assert.Equal(t, 5, cfg.BreakerFailureThreshold)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DAYSYNC_STORAGE_BACKEND", "redis")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/daysync")
	t.Setenv("DAYSYNC_CACHE_TTL", "48h")
	t.Setenv("DAYSYNC_CACHE_MAX_ITEMS", "50")
	t.Setenv("DAYSYNC_CACHE_QUOTA_HIGH_WATER", "0.5")
	t.Setenv("DAYSYNC_STORAGE_QUOTA_BYTES", "1048576")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "redis", cfg.StorageBackend)
	assert.False(t, cfg.LocalOnly())
	assert.Equal(t, 48*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 50, cfg.CacheMaxItems)
	assert.InDelta(t, 0.5, cfg.CacheQuotaHighWater, 0.0001)
	assert.Equal(t, int64(1048576), cfg.StorageQuotaBytes)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("DAYSYNC_CACHE_MAX_ITEMS", "not a number")
	t.Setenv("DAYSYNC_CACHE_TTL", "soon")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.CacheMaxItems)
	assert.Equal(t, 7*24*time.Hour, cfg.CacheTTL)
}
