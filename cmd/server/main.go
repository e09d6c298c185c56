// Package main is the entry point for the studentdesk web frontend. It loads
// configuration, opens visitor storage, wires the plugins, and starts the
// HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/keyxmakerx/studentdesk/internal/app"
	"github.com/keyxmakerx/studentdesk/internal/config"
	"github.com/keyxmakerx/studentdesk/internal/gateway"
	"github.com/keyxmakerx/studentdesk/internal/storage"
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", slog.Any("error", err))
	}

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	// --- Visitor Storage ---
	store, closeStore, err := openStorage(cfg)
	if err != nil {
		slog.Error("failed to open visitor storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	// --- Student API Client ---
	api, err := gateway.New(cfg.API)
	if err != nil {
		slog.Error("failed to create API client", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Create Application ---
	application := app.New(cfg, store, api)
	application.RegisterRoutes()

	// --- Graceful Shutdown ---
	// Listen for interrupt/term signals to drain connections cleanly.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		// Give in-flight requests 10 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Shutdown(ctx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
	}()

	// --- Start Server ---
	if err := application.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStorage connects to Redis when configured and falls back to process
// memory otherwise. Config validation already refuses memory in production.
func openStorage(cfg *config.Config) (storage.Scoper, func(), error) {
	if cfg.Redis.URL == "" {
		slog.Warn("REDIS_URL not set, sessions are kept in memory")
		return storage.NewMemory(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := storage.DialRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("connected to Redis")

	return storage.NewRedis(client, "studentdesk:", cfg.Auth.SessionTTL), func() { _ = client.Close() }, nil
}

// setupLogging configures the global slog logger based on the environment.
// Development uses text format for readability. Production uses JSON for
// structured log aggregation.
func setupLogging(cfg *config.Config) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: cfg.Level()}
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
