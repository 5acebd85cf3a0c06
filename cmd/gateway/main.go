package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joverton/gemsky/internal/atproto"
	"github.com/joverton/gemsky/internal/config"
	"github.com/joverton/gemsky/internal/domain"
	"github.com/joverton/gemsky/internal/gemini"
	"github.com/joverton/gemsky/internal/handles"
	"github.com/joverton/gemsky/internal/views"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", envOrDefault("GEMSKY_CONFIG", "config.yaml"), "path to the gateway config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// One handle table shared by every session for the process lifetime.
	store := handles.NewStore()

	// Log in every configured account. Failed accounts are logged and
	// skipped; the gateway still serves the rest.
	registry := domain.NewRegistry(ctx, cfg.AccountList(), func(pds string) domain.Client {
		return atproto.NewClient(pds)
	}, store, cfg.PageSize, logger)
	logger.Info("sessions initialized", "configured", len(cfg.Accounts), "ready", registry.Len())

	handler := views.NewHandler(registry, logger)
	server, err := gemini.NewServer(cfg.Listen, cfg.TLS.CertFile, cfg.TLS.KeyFile, handler, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	go func() {
		if err := server.Start(); err != nil && ctx.Err() == nil {
			logger.Error("gemini server exited with error", "error", err)
		}
	}()

	logger.Info("gateway started", "listen", cfg.Listen)

	// Wait for shutdown signal
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down gemini server", "error", err)
	}

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
