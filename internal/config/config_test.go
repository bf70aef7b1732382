package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("BACKEND_WS_URL", "ws://localhost:8000/ws")
	t.Setenv("BACKEND_API_URL", "http://localhost:8000")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 5, cfg.MaxReconnectAttempts)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 100, cfg.HistoryLimit)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HEARTBEAT_INTERVAL", "10s")
	t.Setenv("MAX_RECONNECT_ATTEMPTS", "8")
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("HISTORY_LIMIT", "250")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 8, cfg.MaxReconnectAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 250, cfg.HistoryLimit)
}

func TestLoad_RequiresBackendURLs(t *testing.T) {
	t.Setenv("BACKEND_WS_URL", "")
	t.Setenv("BACKEND_API_URL", "http://localhost:8000")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_WS_URL")

	t.Setenv("BACKEND_WS_URL", "ws://localhost:8000/ws")
	t.Setenv("BACKEND_API_URL", "")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_API_URL")
}

func TestLoad_RejectsNonWebsocketScheme(t *testing.T) {
	t.Setenv("BACKEND_WS_URL", "http://localhost:8000/ws")
	t.Setenv("BACKEND_API_URL", "http://localhost:8000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ws:// or wss://")
}

func TestLoad_RejectsMalformedValues(t *testing.T) {
	setRequired(t)
	t.Setenv("HEARTBEAT_INTERVAL", "soon")
	_, err := Load()
	require.Error(t, err)

	setRequired(t)
	t.Setenv("HEARTBEAT_INTERVAL", "")
	t.Setenv("MAX_RECONNECT_ATTEMPTS", "many")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("MAX_RECONNECT_ATTEMPTS", "0")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_RECONNECT_ATTEMPTS")
}
