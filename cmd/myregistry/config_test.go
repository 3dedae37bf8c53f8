package main

import (
	"testing"
	"time"

	"myremoting/adapters/myredis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, port, redisAddr, prefix, reaper string) {
	t.Helper()
	t.Setenv("SERVICE_PORT_HTTP", port)
	t.Setenv("REDIS_ADDR", redisAddr)
	t.Setenv("REDIS_PREFIX", prefix)
	t.Setenv("REAPER_INTERVAL_MS", reaper)
}

func TestLoadConfig_ServicePortRequired(t *testing.T) {
	setEnv(t, "", "", "", "")

	cfg, err := LoadConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "SERVICE_PORT_HTTP is required")
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	setEnv(t, "http", "", "", "")

	cfg, err := LoadConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid SERVICE_PORT_HTTP")
}

func TestLoadConfig_InMemoryDefaults(t *testing.T) {
	setEnv(t, "8080", "", "", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, myredis.DefaultPrefix, cfg.Redis.Prefix)
	assert.Equal(t, time.Second, cfg.ReaperInterval)
}

func TestLoadConfig_Redis(t *testing.T) {
	setEnv(t, "9000", "redis://other:6380", "registry-eu", "250")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, "redis://other:6380", cfg.Redis.Addr)
	assert.Equal(t, "registry-eu", cfg.Redis.Prefix)
	assert.Equal(t, 250*time.Millisecond, cfg.ReaperInterval)
}

func TestLoadConfig_ReaperInterval(t *testing.T) {
	for _, v := range []string{"soon", "0", "-5"} {
		setEnv(t, "8080", "", "", v)

		cfg, err := LoadConfig()
		require.Error(t, err, v)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "REAPER_INTERVAL_MS")
	}
}
