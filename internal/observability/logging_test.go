package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/attendance-service/internal/config"
)

func TestLoggerConfigDefaults(t *testing.T) {
	cfg := loggerConfig(config.LoggerConfig{Level: "bogus"}, config.AppConfig{Name: "attendance-service", Env: "development"})

	assert.Equal(t, zapcore.InfoLevel, cfg.Level.Level())
	assert.Equal(t, "json", cfg.Encoding)
	assert.True(t, cfg.Development)
	assert.Nil(t, cfg.Sampling)
	assert.Equal(t, "attendance-service", cfg.InitialFields["service"])
	assert.Equal(t, "development", cfg.InitialFields["env"])
}

func TestLoggerConfigProductionConsole(t *testing.T) {
	cfg := loggerConfig(config.LoggerConfig{Level: "DEBUG", Format: "console"}, config.AppConfig{Env: "production"})

	assert.Equal(t, zapcore.DebugLevel, cfg.Level.Level())
	assert.Equal(t, "console", cfg.Encoding)
	assert.False(t, cfg.Development)
	require.NotNil(t, cfg.Sampling)
	assert.Equal(t, 100, cfg.Sampling.Initial)

	logger, err := NewLogger(config.LoggerConfig{Level: "warn"}, config.AppConfig{Env: "production"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
