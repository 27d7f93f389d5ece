package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("PAGINATION_DEFAULT_LIMIT", "")
	t.Setenv("AUTH_ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 20, cfg.Pagination.DefaultLimit)
	assert.Equal(t, 100, cfg.Pagination.MaxLimit)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, 60*time.Second, cfg.Redis.ListTTL())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("REDIS_LIST_TTL_SECONDS", "15")
	t.Setenv("POSTGRES_MAX_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Redis.ListTTL())
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
}

func TestLoadRejectsInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")

	_, err := Load()
	assert.Error(t, err)
}

func TestRequestTimeout(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{}.RequestTimeout())
	assert.Equal(t, 5*time.Second, AppConfig{RequestTimeoutSeconds: 5}.RequestTimeout())
}
