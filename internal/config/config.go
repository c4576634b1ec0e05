package config

import (
	"os"
	"strings"
	"time"
)

// Config keeps runtime settings.
type Config struct {
	TelegramToken   string
	DatabaseURL     string
	FlattenInterval time.Duration
}

// Load reads configuration from environment variables with sane defaults.
// TelegramToken is only required by the bot command, so its absence is not an
// error here.
func Load() Config {
	cfg := Config{
		TelegramToken:   strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		FlattenInterval: parseHours(strings.TrimSpace(os.Getenv("FLATTEN_INTERVAL_HOURS"))),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "note_planner.db"
	}

	return cfg
}

// parseHours returns 0 for empty or invalid input; 0 disables the scheduled
// flatten job.
func parseHours(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
