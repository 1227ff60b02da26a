package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied to zero or negative fields.
const (
	DefaultProfile         = "main"
	DefaultUserID          = "1"
	DefaultPageSize        = 10
	DefaultBulkFetchLimit  = 500
	DefaultMessagesPerLoad = 20
	DefaultSearchDebounce  = 300
	DefaultStackedMaxWidth = 100
	DefaultLogLevel        = "info"
)

// Config represents the global ~/.dmchat/config.toml.
type Config struct {
	DefaultProfile   string `toml:"default_profile"`
	UserID           string `toml:"user_id"`
	PageSize         int    `toml:"page_size"`
	BulkFetchLimit   int    `toml:"bulk_fetch_limit"`
	MessagesPerLoad  int    `toml:"messages_per_load"`
	SearchDebounceMS int    `toml:"search_debounce_ms"`
	StackedMaxWidth  int    `toml:"stacked_max_width"`
	LogLevel         string `toml:"log_level"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.withDefaults()
	return cfg
}

// Load reads config from the given path. Returns nil config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault reads config from path, falling back to Default when the
// file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Validate checks fields that have no sensible fallback.
func (c *Config) Validate() error {
	if c.PageSize > c.BulkFetchLimit {
		return fmt.Errorf("page_size %d exceeds bulk_fetch_limit %d", c.PageSize, c.BulkFetchLimit)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// SearchDebounce returns the debounce window as a duration.
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}

func (c *Config) withDefaults() {
	if c.DefaultProfile == "" {
		c.DefaultProfile = DefaultProfile
	}
	if c.UserID == "" {
		c.UserID = DefaultUserID
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.BulkFetchLimit <= 0 {
		c.BulkFetchLimit = DefaultBulkFetchLimit
	}
	if c.MessagesPerLoad <= 0 {
		c.MessagesPerLoad = DefaultMessagesPerLoad
	}
	if c.SearchDebounceMS <= 0 {
		c.SearchDebounceMS = DefaultSearchDebounce
	}
	if c.StackedMaxWidth <= 0 {
		c.StackedMaxWidth = DefaultStackedMaxWidth
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}
