package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/colin-cd72/cards/internal/config"
	"github.com/colin-cd72/cards/internal/database"
	"github.com/colin-cd72/cards/internal/live"
	"github.com/colin-cd72/cards/internal/logging"
	"github.com/colin-cd72/cards/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func runGracefulShutdown(cfg *config.Config, srv *server.Server, coordinator *live.Coordinator) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Closes every live connection with a close frame.
		coordinator.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	userRepo := database.NewUserRepo(pool)
	cardRepo := database.NewCardRepo(pool)
	presetRepo := database.NewPresetRepo(pool)
	settingsRepo := database.NewSettingsRepo(pool)

	store := live.NewCardStore()
	coordinator := live.NewCoordinator(store, clock, cfg.MaxConnections)
	cardService := live.NewCardService(cardRepo, coordinator)

	srv := server.NewServer(cfg, server.Deps{
		Users:       userRepo,
		Cards:       cardRepo,
		Presets:     presetRepo,
		Settings:    settingsRepo,
		CardService: cardService,
		Coordinator: coordinator,
		Store:       store,
		Clock:       clock,
		HealthChecks: []server.HealthCheck{
			{Name: "postgres", Check: pool.Ping},
		},
	})

	done := runGracefulShutdown(cfg, srv, coordinator)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
