package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the Agent Control Center service.
type Config struct {
	Port      int
	Version   string
	DataDir   string
	Sync      SyncConfig
	Telemetry TelemetryConfig
}

type SyncConfig struct {
	// Concurrency bounds the worker pool for pull-all runs.
	// 0 means min(8, number of CPUs).
	Concurrency int
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envInt("ACC_PORT", 8080),
		Version: envStr("ACC_VERSION", "0.2.0"),
		DataDir: envStr("ACC_DATA_DIR", ""),
		Sync: SyncConfig{
			Concurrency: envInt("ACC_SYNC_CONCURRENCY", 0),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", true),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "acc-sync-engine"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
