package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv applies environment overrides on top of file/default
// configuration.
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("SENTINEL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if logLevel := os.Getenv("SENTINEL_LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}

	if interval := os.Getenv("SENTINEL_CHECK_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Cluster.CheckInterval = Duration(d)
		}
	}

	if timeout := os.Getenv("SENTINEL_CATCHUP_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Failover.CatchupTimeout = Duration(d)
		}
	}
}

// GetEnvOrDefault returns the environment variable or a fallback.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
