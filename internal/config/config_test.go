package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modbus-tcp/server/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, v, err := config.Load("")
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, 502, cfg.Server.Port)
	assert.False(t, cfg.Server.IPv6)
	assert.True(t, cfg.Server.Blocking)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.False(t, cfg.StatusAPI.Enabled)
	assert.Equal(t, "127.0.0.1:8080", cfg.StatusAPI.Addr)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MODBUSD_SERVER_PORT", "1502")
	t.Setenv("MODBUSD_LOGGER_LEVEL", "debug")

	cfg, _, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 1502, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)
}
