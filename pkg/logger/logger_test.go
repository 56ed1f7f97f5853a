package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/scoreme/pkg/config"
)

func TestNewHonoursLevel(t *testing.T) {
	logr, err := New(&config.Config{Env: config.EnvDevelopment, Log: config.LogConfig{Level: "warn", Format: "console"}})
	require.NoError(t, err)
	assert.False(t, logr.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logr.Core().Enabled(zapcore.WarnLevel))
}

func TestNewFallsBackOnBadLevel(t *testing.T) {
	logr, err := New(&config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "loud"}})
	require.NoError(t, err)
	assert.True(t, logr.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logr.Core().Enabled(zapcore.DebugLevel))
}
