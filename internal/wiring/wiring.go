// Package wiring assembles the persistence stack shared by the graphdeck
// binaries from a config.Config.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"graphdeck/internal/adapters/filesystem"
	"graphdeck/internal/adapters/sqlite"
	"graphdeck/internal/application/commands"
	"graphdeck/internal/application/persistence"
	"graphdeck/internal/config"
	"graphdeck/internal/eventloop"
	"graphdeck/internal/metrics"
	"graphdeck/internal/ports"
)

// drainPoll is how often Shutdown checks for writes still in flight
const drainPoll = 20 * time.Millisecond

// Runtime owns every long-lived component of a binary
type Runtime struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Loop     *eventloop.Loop
	Store    ports.GraphStore
	Settings *filesystem.SettingsFile
	Unsaved  *filesystem.UnsavedLog
	Facade   *persistence.Facade
	Session  *commands.Session
}

// Open connects the graph store and builds the facade on a fresh loop.
// The loop is not started; long-running hosts call Loop.Run themselves.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store, err := sqlite.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph store: %w", err)
	}
	logger.Debug("graph store opened", "driver", cfg.StoreDriver)
	return assemble(cfg, logger, store), nil
}

// assemble builds the runtime around an already opened store
func assemble(cfg config.Config, logger *slog.Logger, store ports.GraphStore) *Runtime {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	loop := eventloop.New(logger)
	settings := filesystem.NewSettingsFile(cfg.SettingsPath)
	unsaved := filesystem.NewUnsavedLog(cfg.UnsavedLog)
	facade := persistence.New(persistence.Config{
		Loop:             loop,
		Store:            store,
		Settings:         settings,
		Unsaved:          unsaved,
		DebounceInterval: cfg.Debounce,
		StoreTimeout:     cfg.StoreTimeout,
		Logger:           logger,
		Metrics:          metrics.New(reg),
	})

	return &Runtime{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Loop:     loop,
		Store:    store,
		Settings: settings,
		Unsaved:  unsaved,
		Facade:   facade,
		Session:  commands.NewSession(loop, facade),
	}
}

// Shutdown flushes the pending debounced write, refuses new requests and
// waits for queued writes before closing the graph store. Writes still in
// flight when ctx ends are reported and abandoned.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.Session.Close()
	err := r.Loop.Await(ctx, func(done func()) {
		r.Facade.Close()
		done()
	})
	if err != nil && !errors.Is(err, eventloop.ErrStalled) {
		return errors.Join(err, r.Store.Close())
	}

	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()
	for r.Facade.PendingWrites() > 0 {
		// drives the loop when no other goroutine does
		_ = r.Loop.Await(ctx, func(done func()) { done() })
		if r.Facade.PendingWrites() == 0 {
			break
		}
		select {
		case <-ctx.Done():
			r.Logger.Warn("shutdown with writes still pending",
				"pending", r.Facade.PendingWrites(), "unsaved_log", r.Unsaved.Path())
			return errors.Join(ctx.Err(), r.Store.Close())
		case <-ticker.C:
		}
	}
	return r.Store.Close()
}
