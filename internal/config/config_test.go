package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreDriver != DefaultStoreDriver {
		t.Errorf("expected driver %q, got %q", DefaultStoreDriver, cfg.StoreDriver)
	}
	if want := filepath.Join(home, ".local/share/graphdeck/graph.db"); cfg.StoreDSN != want {
		t.Errorf("expected %q, got %q", want, cfg.StoreDSN)
	}
	if want := filepath.Join(home, ".config/graphdeck/settings.json"); cfg.SettingsPath != want {
		t.Errorf("expected %q, got %q", want, cfg.SettingsPath)
	}
	if cfg.Debounce != time.Second {
		t.Errorf("expected 1s debounce, got %v", cfg.Debounce)
	}
	if cfg.MetricsAddr != "" {
		t.Errorf("expected metrics disabled, got %q", cfg.MetricsAddr)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GRAPHDECK_STORE_DRIVER", "pgx")
	t.Setenv("GRAPHDECK_STORE_DSN", "postgres://localhost/graph")
	t.Setenv("GRAPHDECK_DEBOUNCE", "250ms")
	t.Setenv("GRAPHDECK_LOG_LEVEL", "debug")
	t.Setenv("GRAPHDECK_UNSAVED_LOG", "/var/tmp/unsaved.log")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreDSN != "postgres://localhost/graph" {
		t.Errorf("DSN must not be path-expanded for pgx, got %q", cfg.StoreDSN)
	}
	if cfg.Debounce != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.Debounce)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.Level())
	}
	if cfg.UnsavedLog != "/var/tmp/unsaved.log" {
		t.Errorf("unexpected unsaved log %q", cfg.UnsavedLog)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("GRAPHDECK_DEBOUNCE", "soon")

	if _, err := Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestLevel_Fallback(t *testing.T) {
	if got := (Config{LogLevel: "loud"}).Level(); got != slog.LevelInfo {
		t.Errorf("expected info fallback, got %v", got)
	}
}
