package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codepad/internal/api"
	"codepad/internal/billing"
	"codepad/internal/config"
	"codepad/internal/entitle"
	"codepad/internal/history"
	"codepad/internal/language"
	"codepad/internal/monitor"
	"codepad/internal/sandbox"
	"codepad/internal/storage"
)

func main() {
	// Structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	var cfg *config.Config
	var err error

	if _, statErr := os.Stat(configPath); statErr == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
		}
	} else {
		log.Info().Msg("no config file found, using defaults")
		cfg = config.DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := monitor.NewMetrics()
	registry := language.NewRegistry()

	execClient := sandbox.NewClient(
		cfg.Sandbox.Endpoint,
		cfg.Sandbox.APIKey,
		cfg.Sandbox.RequestTimeout,
		registry,
	)

	// Database is optional — sessions and execution work without it,
	// history persistence and entitlements do not.
	var db *storage.DB
	if cfg.Database.DSN != "" {
		db, err = storage.New(ctx, cfg.Database.DSN)
		if err != nil {
			log.Warn().Err(err).Msg("database unavailable, execution history disabled")
		} else {
			defer db.Close()
		}
	}

	var hist *history.Writer
	if db != nil {
		hist = history.NewWriter(entitle.NewGate(db), db)
	}

	var webhooks *billing.Processor
	if db != nil && cfg.Billing.WebhookSecret != "" {
		webhooks = billing.NewProcessor(cfg.Billing.WebhookSecret, db)
	}

	server := api.NewServer(cfg, registry, execClient, db, hist, webhooks, metrics)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		log.Info().Str("signal", sig.String()).Msg("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}

		cancel()
	}()

	log.Info().
		Str("addr", cfg.Address()).
		Str("sandbox", cfg.Sandbox.Endpoint).
		Bool("db_enabled", db != nil).
		Bool("billing_enabled", webhooks != nil).
		Msg("server starting")

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}
