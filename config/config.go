// Package config describes a composition of unifs backends in YAML and
// builds it.
//
// A document lists layers top first. A single layer is used as is; several
// layers are stacked with stackfs. For example:
//
//	readonly: false
//	cache:
//	  ttl: 5s
//	  negative_ttl: 2s
//	  max_entries: 1000
//	logging:
//	  level: debug
//	  format: json
//	layers:
//	  - type: memory
//	  - type: os
//	    root: /srv/base
//	    readonly: true
//	    sub: /app
//	mounts:
//	  - path: /scratch
//	    layer:
//	      type: afero
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Layer types.
const (
	TypeMemory = "memory"
	TypeOS     = "os"
	TypeAfero  = "afero"
	TypeBilly  = "billy"
)

// Config is a composition of backends.
type Config struct {
	// ReadOnly wraps the composed filesystem in a read-only view.
	ReadOnly bool `yaml:"readonly"`

	// Cache enables the stat cache of a stack. It has no effect with a
	// single layer.
	Cache *CacheConfig `yaml:"cache" validate:"omitempty"`

	// Logging configures the logger built by NewLogger.
	Logging LoggingConfig `yaml:"logging"`

	// Layers lists the layers, top first.
	Layers []LayerConfig `yaml:"layers" validate:"required,min=1,dive"`

	// Mounts attaches further filesystems at directories of the composed
	// one, in order.
	Mounts []MountConfig `yaml:"mounts" validate:"dive"`
}

// MountConfig mounts a single layer at Path.
type MountConfig struct {
	Path  string      `yaml:"path" validate:"required"`
	Layer LayerConfig `yaml:"layer"`
}

// CacheConfig configures the stack stat cache.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" validate:"gt=0"`
	// NegativeTTL defaults to half of TTL.
	NegativeTTL time.Duration `yaml:"negative_ttl" validate:"gte=0"`
	// MaxEntries defaults to 1000.
	MaxEntries int `yaml:"max_entries" validate:"gte=0"`
}

// LoggingConfig selects the level and format of the logger.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// LayerConfig describes one layer.
type LayerConfig struct {
	Type string `yaml:"type" validate:"required,oneof=memory os afero billy"`

	// Root is the host directory of an os layer.
	Root string `yaml:"root" validate:"required_if=Type os,excluded_unless=Type os"`

	// Create makes an os layer create Root when missing.
	Create bool `yaml:"create"`

	// ReadOnly wraps the layer in a read-only view.
	ReadOnly bool `yaml:"readonly"`

	// Sub re-roots the layer at one of its directories.
	Sub string `yaml:"sub"`

	// Files seeds an in-memory layer. Keys are paths; a key ending in "/"
	// is a directory.
	Files map[string]string `yaml:"files" validate:"excluded_if=Type os"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document. Unknown fields are errors.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("failed to parse config: empty document")
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills the zero values that have a default.
func ApplyDefaults(cfg *Config) {
	if cfg.Cache != nil {
		if cfg.Cache.NegativeTTL == 0 {
			cfg.Cache.NegativeTTL = cfg.Cache.TTL / 2
		}
		if cfg.Cache.MaxEntries == 0 {
			cfg.Cache.MaxEntries = 1000
		}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg against its field rules.
func Validate(cfg *Config) error {
	return validate.Struct(cfg)
}

// NewLogger returns a slog logger writing to w as configured.
func (c LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c LoggingConfig) level() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
