// internal/config/config.go
//
// Runtime configuration for the minnet server.
//
// Sources, in order:
//   1. A .env file in the working directory (development convenience; optional).
//   2. Process environment variables.
//
// Every field has a default, so the server starts with no configuration at all.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all server settings.
type Config struct {
	Port     string `env:"PORT" envDefault:"5175"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Storage
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/minnet.db"`
	DataDir      string `env:"DATA_DIR"` // results.json + settings.json; defaults to the user config dir
	ResultsLimit int    `env:"RESULTS_LIMIT" envDefault:"500"`

	// Gameplay
	DefaultPairs int           `env:"DEFAULT_PAIRS" envDefault:"6"`
	SymbolsFile  string        `env:"SYMBOLS_FILE"`
	HideDelay    time.Duration `env:"HIDE_DELAY" envDefault:"0s"` // >0: server hides mismatches itself
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"2h"`

	// Daily challenge
	DailySalt  string `env:"DAILY_SALT" envDefault:"local_dev_salt"`
	DailyPairs int    `env:"DAILY_PAIRS" envDefault:"8"`

	// HTTP / auth
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"minnet_token"`
	Environment    string `env:"NODE_ENV" envDefault:"development"`
}

// Load reads .env (if present) and parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if c.DataDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		c.DataDir = filepath.Join(dir, "minnet")
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.DefaultPairs < 1 {
		return fmt.Errorf("DEFAULT_PAIRS must be positive, got %d", c.DefaultPairs)
	}
	if c.DailyPairs < 1 {
		return fmt.Errorf("DAILY_PAIRS must be positive, got %d", c.DailyPairs)
	}
	if c.HideDelay < 0 {
		return fmt.Errorf("HIDE_DELAY must not be negative, got %s", c.HideDelay)
	}
	return nil
}

// CheckPairs verifies that every configured pair count can be dealt from a
// pool of n distinct symbols.
func (c Config) CheckPairs(n int) error {
	if c.DefaultPairs > n {
		return fmt.Errorf("DEFAULT_PAIRS=%d exceeds the %d available symbols", c.DefaultPairs, n)
	}
	if c.DailyPairs > n {
		return fmt.Errorf("DAILY_PAIRS=%d exceeds the %d available symbols", c.DailyPairs, n)
	}
	return nil
}

// Production reports whether cookies should be marked Secure.
func (c Config) Production() bool { return c.Environment == "production" }

// ResultsPath is where finished games are logged.
func (c Config) ResultsPath() string { return filepath.Join(c.DataDir, "results.json") }

// SettingsPath is where player preferences are kept.
func (c Config) SettingsPath() string { return filepath.Join(c.DataDir, "settings.json") }
