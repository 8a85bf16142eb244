package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"graphdeck/internal/adapters/editor"
	"graphdeck/internal/adapters/tui"
	"graphdeck/internal/adapters/tui/views"
	"graphdeck/internal/config"
	"graphdeck/internal/wiring"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// the terminal belongs to the TUI, so logs go next to the unsaved log
	logPath := filepath.Join(filepath.Dir(cfg.UnsavedLog), "graphdeck.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := cfg.NewLogger(logFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	rt, err := wiring.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	go rt.Loop.Run(loopCtx)

	// Initialize adapters
	backend := views.NewBackend(rt.Loop, rt.Facade)
	app := tui.NewApp(backend, editor.NewOpener(cfg.Editor))

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	backend.SetSender(p.Send)

	_, runErr := p.Run()
	app.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()
	if err := rt.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", "err", err, "unsaved_log", rt.Unsaved.Path())
		if runErr == nil {
			runErr = fmt.Errorf("some changes may not be saved, see %s: %w", rt.Unsaved.Path(), err)
		}
	}
	return runErr
}
