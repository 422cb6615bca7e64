package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration. Every field is
// optional; a missing config file simply yields the defaults, since the
// compiler is driven almost entirely by its two positional arguments.
type Config struct {
	// HorizonDays bounds the forward window of emitted time-zone
	// transitions, counted from the start of the run.
	HorizonDays int `yaml:"horizon_days"`

	// MaxPosterDim is the largest accepted poster width or height in
	// pixels. Larger images are skipped with a warning.
	MaxPosterDim int `yaml:"max_poster_dim"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`

	// ExportICS toggles writing schedule.ics next to data.json.
	ExportICS *bool `yaml:"export_ics"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	yes := true
	return &Config{
		HorizonDays:  365 * 5,
		MaxPosterDim: 2048,
		LogLevel:     "info",
		ExportICS:    &yes,
	}
}

// Normalize fills in missing/zero values with defaults so that partial
// configs behave the same as absent ones.
func (c *Config) Normalize() {
	if c.HorizonDays <= 0 {
		c.HorizonDays = 365 * 5
	}
	if c.MaxPosterDim <= 0 {
		c.MaxPosterDim = 2048
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
	if c.ExportICS == nil {
		yes := true
		c.ExportICS = &yes
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - path == "": return defaults.
//   - file does not exist: return defaults (the config file is optional).
//   - file exists: read YAML, unmarshal, normalize.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}
