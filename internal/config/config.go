package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv               string
	Port                 string
	LogLevel             string
	LogFormat            string
	BackendWSURL         string
	BackendAPIURL        string
	HeartbeatInterval    time.Duration
	MaxReconnectAttempts int
	PollInterval         time.Duration
	HistoryLimit         int
}

func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		BackendWSURL:  getEnv("BACKEND_WS_URL", ""),
		BackendAPIURL: getEnv("BACKEND_API_URL", ""),
	}

	var err error
	if cfg.HeartbeatInterval, err = getDuration("HEARTBEAT_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxReconnectAttempts, err = getInt("MAX_RECONNECT_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getDuration("POLL_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = getInt("HISTORY_LIMIT", 100); err != nil {
		return nil, err
	}

	if cfg.BackendWSURL == "" {
		return nil, fmt.Errorf("BACKEND_WS_URL is required")
	}
	if !strings.HasPrefix(cfg.BackendWSURL, "ws://") && !strings.HasPrefix(cfg.BackendWSURL, "wss://") {
		return nil, fmt.Errorf("BACKEND_WS_URL must use a ws:// or wss:// scheme")
	}
	if cfg.BackendAPIURL == "" {
		return nil, fmt.Errorf("BACKEND_API_URL is required")
	}
	if cfg.HeartbeatInterval <= 0 {
		return nil, fmt.Errorf("HEARTBEAT_INTERVAL must be positive")
	}
	if cfg.MaxReconnectAttempts < 1 {
		return nil, fmt.Errorf("MAX_RECONNECT_ATTEMPTS must be at least 1")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if cfg.HistoryLimit < 1 {
		return nil, fmt.Errorf("HISTORY_LIMIT must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s or 2m: %w", key, err)
	}
	return parsed, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}
