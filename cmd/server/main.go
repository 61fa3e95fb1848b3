package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/garnizeh/capacity/api"
	dbfs "github.com/garnizeh/capacity/db"
	"github.com/garnizeh/capacity/internal/capacity"
	"github.com/garnizeh/capacity/internal/config"
	"github.com/garnizeh/capacity/internal/db"
	"github.com/garnizeh/capacity/internal/metrics"
	"github.com/garnizeh/capacity/internal/repository/sqlite"
	"github.com/garnizeh/capacity/internal/snapshot"
	"github.com/garnizeh/capacity/internal/validation"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	level := slog.LevelInfo
	if config.IsDevelopment() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	api.SetLogger(logger)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "err", err)
		os.Exit(1)
	}

	logger.Info("starting capacity server", "version", version, "build_time", buildTime)

	ctx := context.Background()

	// Open database connection
	database, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("failed to open DB", "err", err)
		os.Exit(1)
	}
	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
			logger.Error("migration failed", "err", err)
			os.Exit(1)
		}
	}

	schemas, err := validation.NewLoader(dbfs.Schemas, "schemas")
	if err != nil {
		logger.Error("failed to load request schemas", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	repo := sqlite.New(database, logger).Repository()
	guard := capacity.NewGuard(repo,
		capacity.WithLogger(logger.With("component", "guard")),
		capacity.WithMetrics(metrics.NewPrometheus(reg, cfg.Metrics.Namespace)),
		capacity.WithMaxRetries(cfg.Capacity.MaxConflictRetries),
	)

	handler := api.SetupRoutes(cfg, version, buildTime, api.Deps{
		Repo:     repo,
		Guard:    guard,
		Reader:   snapshot.NewReader(repo),
		Schemas:  schemas,
		Gatherer: reg,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
	}

	// Close database connection
	if err := database.Close(); err != nil {
		logger.Error("error closing DB", "err", err)
	}

	logger.Info("server exited")
}
