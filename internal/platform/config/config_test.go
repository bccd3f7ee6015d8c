package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"GATEKEEPER_ADDR", "ENVIRONMENT", "LOG_LEVEL", "HEALTH_PATH", "ADMIN_TOKEN", "ADMIN_TOKEN_HASH",
	"JWT_SIGNING_KEY", "TRUSTED_PROXIES", "REDIS_URL", "REDIS_POOL_SIZE", "REDIS_MIN_IDLE_CONNS",
	"REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT", "RATE_LIMIT_DISABLED",
	"RATE_LIMIT_POLICY_FILE", "STORE_TIMEOUT", "MEMORY_STORE_CAPACITY", "API_SUPPORTED_VERSIONS",
	"API_CURRENT_VERSION", "API_DEFAULT_VERSION", "API_PRODUCT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/health", cfg.HealthPath)
	assert.Equal(t, devAdminToken, cfg.AdminToken)
	assert.Equal(t, []string{"v1"}, cfg.Versioning.Supported)
	assert.Equal(t, "v1", cfg.Versioning.Current)
	assert.Equal(t, "v1", cfg.Versioning.Default)
	assert.Equal(t, "dashboard", cfg.Versioning.Product)
	assert.Equal(t, 100*time.Millisecond, cfg.RateLimit.StoreTimeout)
	assert.Equal(t, 100_000, cfg.RateLimit.MemoryStoreCapacity)
	assert.False(t, cfg.RateLimit.Disabled)
	assert.Empty(t, cfg.Redis.URL)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GATEKEEPER_ADDR", ":9090")
	t.Setenv("API_SUPPORTED_VERSIONS", "V1, v2")
	t.Setenv("API_CURRENT_VERSION", "")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.0.1")
	t.Setenv("RATE_LIMIT_DISABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"v1", "v2"}, cfg.Versioning.Supported)
	assert.Equal(t, "v2", cfg.Versioning.Current, "current defaults to the last supported version")
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimit.StoreTimeout)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.1"}, cfg.TrustedProxies)
	assert.True(t, cfg.RateLimit.Disabled)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestFromEnvErrors(t *testing.T) {
	clearEnv(t)

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("STORE_TIMEOUT", "soon")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "STORE_TIMEOUT")
	})

	t.Run("production requires admin token", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("ADMIN_TOKEN", "")
		t.Setenv("ADMIN_TOKEN_HASH", "")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "ADMIN_TOKEN")
	})

	t.Run("health path must be absolute", func(t *testing.T) {
		t.Setenv("HEALTH_PATH", "health")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "HEALTH_PATH")
	})
}

func TestParseLogLevel(t *testing.T) {
	for raw, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLogLevel(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLogLevel("loud")
	assert.Error(t, err)
}
