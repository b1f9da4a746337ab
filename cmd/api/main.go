// Command api is the LeagueCore scheduling API server.
//
// Usage:
//
//	leaguecore-api
//	API_PORT=8080 leaguecore-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/courtly/leaguecore/internal/api"
	"github.com/courtly/leaguecore/internal/api/auth"
	"github.com/courtly/leaguecore/internal/api/handler"
	"github.com/courtly/leaguecore/internal/cache"
	"github.com/courtly/leaguecore/internal/clock"
	"github.com/courtly/leaguecore/internal/config"
	"github.com/courtly/leaguecore/internal/conflict"
	"github.com/courtly/leaguecore/internal/notify"
	"github.com/courtly/leaguecore/internal/officials"
	"github.com/courtly/leaguecore/internal/schedule"
	"github.com/courtly/leaguecore/internal/storage/postgres"
	"github.com/courtly/leaguecore/internal/travel"
	"github.com/courtly/leaguecore/internal/weather"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.LogLevel != slog.LevelInfo {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
		slog.SetDefault(logger)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := postgres.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	store := postgres.NewStore(pool)

	// Initialize cache
	clk := clock.Real{}
	appCache := cache.New(cfg.CacheEnabled, clk)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Scheduling engines
	estimator := travel.NewEstimator(nil)
	detector := conflict.New(conflict.Config{
		BufferMinutes:      cfg.BufferMinutes,
		MinRestHours:       cfg.MinRestHours,
		MaxTravelMinutes:   cfg.MaxTravelMin,
		DangerousHourStart: config.DangerousHoursStart,
		DangerousHourEnd:   config.DangerousHoursEnd,
	}, estimator, clk)

	var heat *weather.Evaluator
	if cfg.FeatureHeatPolicy && cfg.WeatherAPIURL != "" {
		provider := weather.NewClient(cfg.WeatherAPIURL, cfg.WeatherAPIKey, config.WeatherCallTimeout)
		heat = weather.NewEvaluator(provider, weather.DefaultPolicyConfig(), logger)
		logger.Info("Heat policy evaluator enabled")
	} else {
		logger.Info("Heat policy evaluator disabled")
	}

	generator := schedule.NewGenerator(detector, heat, clk, logger, cfg.PlacerWorkers)
	optimizer := officials.NewOptimizer(estimator, clk, logger)
	events := notify.NewDispatcher(5*time.Second, &notify.LogNotifier{Logger: logger})

	// Token resolver
	var resolver auth.TokenResolver
	if cfg.IdentityURL != "" {
		resolver = auth.NewHTTPResolver(cfg.IdentityURL, 5*time.Second)
	} else {
		if cfg.IsProduction() {
			logger.Error("IDENTITY_URL must be set in production")
			os.Exit(1)
		}
		resolver = auth.DevResolver{}
		logger.Warn("Using development token resolver")
	}

	h := handler.New(handler.Deps{
		Store:     store,
		Cache:     appCache,
		Config:    cfg,
		Logger:    logger,
		Clock:     clk,
		Generator: generator,
		Detector:  detector,
		Heat:      heat,
		Optimizer: optimizer,
		Events:    events,
		PingDB:    pool.HealthCheck,
	})

	// Create router
	router := api.NewRouter(h, resolver, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second, // generation runs can be slow
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting LeagueCore Scheduling API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
