// Package config loads graphdeck settings from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultStoreDriver  = "sqlite"
	DefaultStoreDSN     = "~/.local/share/graphdeck/graph.db"
	DefaultSettingsPath = "~/.config/graphdeck/settings.json"
	DefaultUnsavedLog   = "~/.local/state/graphdeck/unsaved.log"
)

// Config holds the runtime configuration shared by every binary
type Config struct {
	StoreDriver  string        `env:"GRAPHDECK_STORE_DRIVER"  envDefault:"sqlite"`
	StoreDSN     string        `env:"GRAPHDECK_STORE_DSN"     envDefault:"~/.local/share/graphdeck/graph.db"`
	StoreTimeout time.Duration `env:"GRAPHDECK_STORE_TIMEOUT" envDefault:"30s"`
	SettingsPath string        `env:"GRAPHDECK_SETTINGS_PATH" envDefault:"~/.config/graphdeck/settings.json"`
	UnsavedLog   string        `env:"GRAPHDECK_UNSAVED_LOG"   envDefault:"~/.local/state/graphdeck/unsaved.log"`
	Debounce     time.Duration `env:"GRAPHDECK_DEBOUNCE"      envDefault:"1s"`
	LogLevel     string        `env:"GRAPHDECK_LOG_LEVEL"     envDefault:"info"`
	MetricsAddr  string        `env:"GRAPHDECK_METRICS_ADDR"`
	Editor       string        `env:"GRAPHDECK_EDITOR"`
}

// Load reads the configuration from environment variables and expands ~ in
// file paths
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.expand()
}

func (c Config) expand() (Config, error) {
	var err error
	if c.StoreDriver == DefaultStoreDriver {
		if c.StoreDSN, err = ExpandHome(c.StoreDSN); err != nil {
			return c, err
		}
	}
	if c.SettingsPath, err = ExpandHome(c.SettingsPath); err != nil {
		return c, err
	}
	if c.UnsavedLog, err = ExpandHome(c.UnsavedLog); err != nil {
		return c, err
	}
	return c, nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// Level parses LogLevel, falling back to info
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger builds the process logger writing text records to w
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}
