package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration, loaded from an
// optional YAML file with environment-variable overrides.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen"`
	// DatabaseDSN is either a SQLite file path or a postgres:// URL.
	DatabaseDSN string `yaml:"database_dsn"`
	// LogMode selects the zap encoder: "dev" or "prod".
	LogMode string `yaml:"log_mode"`

	Reminders RemindersConfig `yaml:"reminders"`
}

// RemindersConfig controls the daily digest job.
type RemindersConfig struct {
	// Enabled turns the cron job on. It also needs a TelegramToken and
	// families with a chat id configured.
	Enabled bool `yaml:"enabled"`
	// DailyAt is the local HH:MM the digest goes out.
	DailyAt string `yaml:"daily_at"`
	// Every, when set to a Go duration ("6h", "30m"), sends the digest on
	// that interval instead of once a day.
	Every string `yaml:"every"`
	// TelegramToken authorizes the notifier bot.
	TelegramToken string `yaml:"telegram_token"`
}

// DefaultConfig returns the in-memory defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:      ":8080",
		DatabaseDSN: "carehub.db",
		LogMode:     "dev",
		Reminders: RemindersConfig{
			Enabled: false,
			DailyAt: "08:00",
		},
	}
}

// Load reads the config file at path (missing file is fine), then
// applies environment overrides and fills remaining zero values with
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parse config %q: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// First run without a file: defaults plus env.
		default:
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	applyEnv(cfg)
	cfg.Normalize()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("CAREHUB_LISTEN")); v != "" {
		cfg.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_DSN")); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_MODE")); v != "" {
		cfg.LogMode = v
	}
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")); v != "" {
		cfg.Reminders.TelegramToken = v
		cfg.Reminders.Enabled = true
	}
	if v := strings.TrimSpace(os.Getenv("REMINDERS_DAILY_AT")); v != "" {
		cfg.Reminders.DailyAt = v
	}
	if v := strings.TrimSpace(os.Getenv("REMINDERS_EVERY")); v != "" {
		cfg.Reminders.Every = v
	}
}

// Normalize fills missing values so partially-filled configs still
// behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.DatabaseDSN == "" {
		c.DatabaseDSN = "carehub.db"
	}
	if c.LogMode == "" {
		c.LogMode = "dev"
	}
	if c.Reminders.DailyAt == "" {
		c.Reminders.DailyAt = "08:00"
	}
}
