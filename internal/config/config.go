// ABOUTME: Centralized configuration for the chatdesk client
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v10"
	"github.com/rs/zerolog"

	"github.com/harper/chatdesk/internal/backend"
	"github.com/harper/chatdesk/internal/models"
)

// Config holds all configuration for the chat client
type Config struct {
	// Backend settings
	BackendURL string        `env:"CHATDESK_BACKEND_URL" envDefault:"http://localhost:5000"`
	Timeout    time.Duration `env:"CHATDESK_TIMEOUT" envDefault:"60s"`
	MaxRetries int           `env:"CHATDESK_MAX_RETRIES" envDefault:"2"`
	RetryDelay time.Duration `env:"CHATDESK_RETRY_DELAY" envDefault:"500ms"`

	// Session settings
	Username string `env:"CHATDESK_USERNAME"`
	Mode     string `env:"CHATDESK_MODE" envDefault:"sql"`
	Timezone string `env:"CHATDESK_TIMEZONE" envDefault:"Local"`

	// Local cache
	DBPath       string `env:"CHATDESK_DB_PATH"`
	CacheEnabled bool   `env:"CHATDESK_CACHE" envDefault:"true"`

	// Charm settings
	CharmHost   string `env:"CHARM_HOST" envDefault:"charm.2389.dev"`
	CharmDBName string `env:"CHARM_DB" envDefault:"chatdesk"`
	AutoSync    bool   `env:"CHATDESK_PROFILE_SYNC" envDefault:"false"`

	LogLevel string `env:"CHATDESK_LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges that struct tags cannot express
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return fmt.Errorf("CHATDESK_BACKEND_URL must not be empty")
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("CHATDESK_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("CHATDESK_TIMEOUT must be positive, got %v", c.Timeout)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("CHATDESK_RETRY_DELAY must not be negative, got %v", c.RetryDelay)
	}
	if _, err := models.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("CHATDESK_MODE: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("CHATDESK_TIMEZONE: %w", err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("CHATDESK_LOG_LEVEL: %w", err)
	}
	return nil
}

// DefaultDBPath returns the XDG location of the local cache database
func DefaultDBPath() string {
	// Respects XDG_DATA_HOME override for testing
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "chatdesk", "chatdesk.db")
}

// InitialMode returns the parsed starting mode
func (c *Config) InitialMode() models.Mode {
	m, err := models.ParseMode(c.Mode)
	if err != nil {
		return models.DefaultMode
	}
	return m
}

// Location returns the time zone used for day grouping
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Level returns the configured log level, defaulting to info
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Backend returns settings for the backend client
func (c *Config) Backend() *backend.Config {
	return &backend.Config{
		BaseURL:    c.BackendURL,
		Timeout:    c.Timeout,
		MaxRetries: c.MaxRetries,
		RetryDelay: c.RetryDelay,
	}
}
