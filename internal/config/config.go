// Package config loads booklore settings.
//
// Order: defaults -> YAML file -> BOOKLORE_* environment -> Validate.
// Command-line flags are applied by the caller afterwards.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/sorting"
)

// Config holds the application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Browse   BrowseConfig   `yaml:"browse"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"` // file path or ":memory:"
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// BrowseConfig holds the browsing defaults used when nothing is stored.
type BrowseConfig struct {
	FacetSort      string `yaml:"facet_sort"` // count, alphabetical, sortIndex
	CollapseSeries bool   `yaml:"collapse_series"`
	Sort           string `yaml:"sort"`
	Direction      string `yaml:"direction"` // asc, desc
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "booklore.db"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Browse: BrowseConfig{
			FacetSort: string(facet.DefaultSortMode),
			Sort:      sorting.Default.Field,
			Direction: strings.ToLower(string(sorting.Default.Direction)),
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in values a file left blank.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if c.Browse.FacetSort == "" {
		c.Browse.FacetSort = def.Browse.FacetSort
	}
	if c.Browse.Sort == "" {
		c.Browse.Sort = def.Browse.Sort
		c.Browse.Direction = def.Browse.Direction
	}
	if c.Browse.Direction == "" {
		c.Browse.Direction = "asc"
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("BOOKLORE_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("BOOKLORE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("BOOKLORE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("BOOKLORE_FACET_SORT"); v != "" {
		c.Browse.FacetSort = v
	}
	if v := os.Getenv("BOOKLORE_COLLAPSE_SERIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Browse.CollapseSeries = b
		}
	}
	if v := os.Getenv("BOOKLORE_SORT"); v != "" {
		c.Browse.Sort = v
	}
	if v := os.Getenv("BOOKLORE_SORT_DIRECTION"); v != "" {
		c.Browse.Direction = v
	}
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	if facet.ParseSortMode(c.Browse.FacetSort) != facet.SortMode(c.Browse.FacetSort) {
		return fmt.Errorf("browse.facet_sort: unknown mode %q", c.Browse.FacetSort)
	}
	dir, ok := sorting.ParseDirection(c.Browse.Direction)
	if !ok {
		return fmt.Errorf("browse.direction: must be \"asc\" or \"desc\", got %q", c.Browse.Direction)
	}
	if _, ok := sorting.Lookup(c.Browse.Sort, dir); !ok {
		return fmt.Errorf("browse.sort: unknown field %q", c.Browse.Sort)
	}
	return nil
}

// SortOption returns the configured default ordering.
func (c *Config) SortOption() sorting.Option {
	dir, _ := sorting.ParseDirection(c.Browse.Direction)
	if opt, ok := sorting.Lookup(c.Browse.Sort, dir); ok {
		return opt
	}
	return sorting.Default
}

// FacetSortMode returns the configured facet ordering.
func (c *Config) FacetSortMode() facet.SortMode {
	return facet.ParseSortMode(c.Browse.FacetSort)
}

// NewLogger builds a slog logger writing to w. verbose forces debug level.
func (c *Config) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging.level: unknown level %q", s)
	}
}
