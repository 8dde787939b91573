// Package config defines process configuration and how it is loaded.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers files and environment on top of New.
// - Loading and validation errors wrap this package's sentinels.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile receives log output. Empty means stderr. The interactive
	// program defaults to a file so logs do not interleave with prompts.
	LogFile string `koanf:"log_file"`

	// LogJSON switches log lines to JSON.
	LogJSON bool `koanf:"log_json"`

	// DBPath is the SQLite library file.
	DBPath string `koanf:"db_path"`

	// BackupDir and BackupKeep control the backups written on quit.
	BackupDir  string `koanf:"backup_dir"`
	BackupKeep int    `koanf:"backup_keep"`

	// ExportDir receives dated ranking exports.
	ExportDir string `koanf:"export_dir"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// InitialPageSize and PageSize page the terminal rankings view.
	InitialPageSize int `koanf:"initial_page_size"`
	PageSize        int `koanf:"page_size"`

	// MaxRankingsLimit caps GET /rankings?limit.
	MaxRankingsLimit int `koanf:"max_rankings_limit"`

	// DedupeSize bounds the idempotency key cache of the HTTP API.
	DedupeSize int `koanf:"dedupe_size"`

	// Seed fixes the pair selector's random source. 0 seeds from the clock.
	Seed int64 `koanf:"seed"`

	// Color is auto, always or never.
	Color string `koanf:"color"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFile:          "bookarena.log",
		DBPath:           "data/books.db",
		BackupDir:        "backup",
		BackupKeep:       5,
		ExportDir:        "exports",
		Addr:             ":9080",
		InitialPageSize:  100,
		PageSize:         50,
		MaxRankingsLimit: 1000,
		DedupeSize:       10_000,
		Color:            ColorAuto,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.DBPath) == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.BackupKeep < 1:
		return fmt.Errorf("%w: backup_keep must be at least 1, got %d", ErrInvalidConfig, c.BackupKeep)
	case c.InitialPageSize < 1 || c.PageSize < 1:
		return fmt.Errorf("%w: page sizes must be at least 1", ErrInvalidConfig)
	case c.MaxRankingsLimit < 1:
		return fmt.Errorf("%w: max_rankings_limit must be at least 1", ErrInvalidConfig)
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: color must be auto, always or never, got %q", ErrInvalidConfig, c.Color)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

// UseColor resolves the color mode against whether output is a terminal.
func (c *Config) UseColor(terminal bool) bool {
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return terminal
	}
}

// RandSeed returns Seed, or a clock based seed when Seed is 0.
func (c *Config) RandSeed() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return time.Now().UnixNano()
}
