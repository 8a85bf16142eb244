package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mcpadapter "graphdeck/internal/adapters/mcp"
	"graphdeck/internal/config"
	"graphdeck/internal/wiring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("graphdeck-mcp: %v", err)
	}
	// stdout carries the protocol
	logger := cfg.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := wiring.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("graphdeck-mcp: %v", err)
	}
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go rt.Loop.Run(loopCtx)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "addr", cfg.MetricsAddr, "err", err)
			}
		}()
		defer srv.Close()
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	mcpServer := server.NewMCPServer(
		"graphdeck-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, rt.Session)
	mcpadapter.RegisterWriteTools(mcpServer, rt.Session)

	serveErr := server.ServeStdio(mcpServer)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()
	if err := rt.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", "err", err, "unsaved_log", rt.Unsaved.Path())
	}
	if serveErr != nil {
		log.Fatalf("graphdeck-mcp: %v", serveErr)
	}
}
