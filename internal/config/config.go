// Package config loads and persists vulnctx settings from
// .vulnctx/config.json under the repository root.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"vulnctx/internal/extract"
	"vulnctx/internal/render"
)

// Config is the complete vulnctx configuration.
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Extract ExtractConfig `json:"extract" mapstructure:"extract"`
	Render  RenderConfig  `json:"render" mapstructure:"render"`
	Batch   BatchConfig   `json:"batch" mapstructure:"batch"`
	Locator LocatorConfig `json:"locator" mapstructure:"locator"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ExtractConfig holds the extraction budget.
type ExtractConfig struct {
	MaxLines       int `json:"maxLines" mapstructure:"maxLines"`
	Padding        int `json:"padding" mapstructure:"padding"`
	CallsiteWindow int `json:"callsiteWindow" mapstructure:"callsiteWindow"`
}

// RenderConfig holds text-cleanup settings.
type RenderConfig struct {
	CommentElideThreshold int `json:"commentElideThreshold" mapstructure:"commentElideThreshold"`
}

// BatchConfig holds batch execution settings.
type BatchConfig struct {
	Workers int `json:"workers" mapstructure:"workers"`
}

// LocatorConfig holds method-index cache settings.
type LocatorConfig struct {
	CacheSize int `json:"cacheSize" mapstructure:"cacheSize"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	budget := extract.DefaultBudget()
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Extract: ExtractConfig{
			MaxLines:       budget.MaxLines,
			Padding:        budget.Padding,
			CallsiteWindow: budget.CallsiteWindow,
		},
		Render: RenderConfig{
			CommentElideThreshold: render.DefaultOptions().CommentElideThreshold,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Locator: LocatorConfig{
			CacheSize: 512,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Budget converts the extract section to an extraction budget.
func (c *Config) Budget() extract.Budget {
	return extract.Budget{
		MaxLines:       c.Extract.MaxLines,
		Padding:        c.Extract.Padding,
		CallsiteWindow: c.Extract.CallsiteWindow,
	}
}

// RenderOptions converts the render section to renderer options.
func (c *Config) RenderOptions() render.Options {
	return render.Options{CommentElideThreshold: c.Render.CommentElideThreshold}
}

// LoadConfig loads configuration from .vulnctx/config.json, falling
// back to defaults when the file does not exist. Fields missing from
// the file are backfilled with their defaults.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".vulnctx"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.backfill()
	return &cfg, nil
}

// backfill replaces zero values with defaults so partial config files
// stay valid across additions to the schema.
func (c *Config) backfill() {
	def := DefaultConfig()
	if c.Version == 0 {
		c.Version = def.Version
	}
	if c.RepoRoot == "" {
		c.RepoRoot = def.RepoRoot
	}
	if c.Extract.MaxLines == 0 {
		c.Extract.MaxLines = def.Extract.MaxLines
	}
	if c.Extract.Padding == 0 {
		c.Extract.Padding = def.Extract.Padding
	}
	if c.Extract.CallsiteWindow == 0 {
		c.Extract.CallsiteWindow = def.Extract.CallsiteWindow
	}
	if c.Render.CommentElideThreshold == 0 {
		c.Render.CommentElideThreshold = def.Render.CommentElideThreshold
	}
	if c.Batch.Workers == 0 {
		c.Batch.Workers = def.Batch.Workers
	}
	if c.Locator.CacheSize == 0 {
		c.Locator.CacheSize = def.Locator.CacheSize
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}

// Save writes the configuration to .vulnctx/config.json.
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".vulnctx")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Extract.MaxLines < 1 {
		return &ConfigError{Field: "extract.maxLines", Message: "must be positive"}
	}
	if c.Extract.Padding < 0 {
		return &ConfigError{Field: "extract.padding", Message: "must not be negative"}
	}
	if c.Extract.CallsiteWindow < 0 {
		return &ConfigError{Field: "extract.callsiteWindow", Message: "must not be negative"}
	}
	if c.Batch.Workers < 1 {
		return &ConfigError{Field: "batch.workers", Message: "must be positive"}
	}
	return nil
}

// ConfigError describes an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
