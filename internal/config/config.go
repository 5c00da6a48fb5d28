package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           int
	DatabaseURL    string
	NatsURL        string
	NatsToken      string
	LogLevel       string
	Timezone       string
	SyncWindowDays int
}

func Load() Config {
	return Config{
		Port:           envInt("TRACEBACK_PORT", 8710),
		DatabaseURL:    envStr("DATABASE_URL", ""),
		NatsURL:        envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:      envStr("NATS_TOKEN", ""),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		Timezone:       envStr("TRACEBACK_TZ", "Local"),
		SyncWindowDays: envInt("TRACEBACK_SYNC_WINDOW_DAYS", 90),
	}
}

// Location resolves the configured timezone. Every local-midnight day
// boundary in the pipeline derives from this location; it is injected into
// each aggregation call rather than cached process-wide.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
