// Package main provides the REST API server for l0l1.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/l0l1/l0l1-go/internal/config"
	"github.com/l0l1/l0l1-go/internal/db"
	"github.com/l0l1/l0l1-go/internal/embedding"
	"github.com/l0l1/l0l1-go/internal/jobs"
	"github.com/l0l1/l0l1-go/internal/learning"
	"github.com/l0l1/l0l1-go/internal/llm"
	"github.com/l0l1/l0l1-go/internal/metrics"
	"github.com/l0l1/l0l1-go/internal/pii"
	"github.com/l0l1/l0l1-go/internal/server"
	"github.com/l0l1/l0l1-go/internal/store"
)

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all patterns from the database on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()
	slog.SetDefault(logger)

	logger.Info("starting l0l1-server",
		"host", cfg.APIHost,
		"port", cfg.APIPort,
		"surrealdb_url", cfg.SurrealDBURL,
		"learning_enabled", cfg.EnableLearning,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbCfg := db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}

	dbClient, err := db.NewClient(ctx, dbCfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing database connection")
		_ = dbClient.Close(ctx)
	}()

	if err := dbClient.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	patternStore := store.NewSurrealStore(dbClient)

	if *wipeDB || os.Getenv("L0L1_WIPE_DB") == "true" {
		wipeCtx, wipeCancel := context.WithTimeout(ctx, 30*time.Second)
		err := dbClient.WipeData(wipeCtx)
		wipeCancel()
		if err != nil {
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
		logger.Info("database wiped")
	}

	// AI providers are optional; the service degrades without them.
	var embedder learning.Embedder
	if e, err := embedding.New(ctx, cfg); err != nil {
		logger.Warn("embedder unavailable, similarity retrieval disabled", "error", err)
	} else {
		embedder = e
		logger.Info("embedder initialized", "model", e.Model())
	}

	var model learning.SQLModel
	if m, err := llm.NewModel(cfg); err != nil {
		logger.Warn("LLM unavailable, AI assistance disabled", "error", err)
	} else {
		model = m
		logger.Info("LLM initialized", "model", m.Model())
	}

	var detector *pii.Detector
	if cfg.EnablePIIDetection {
		detector = pii.NewDetector()
	}

	collector := metrics.NewCollector()

	learningService := learning.NewService(learning.Config{
		Store:           patternStore,
		Embedder:        embedder,
		Model:           model,
		Detector:        detector,
		Metrics:         collector,
		Enabled:         cfg.EnableLearning,
		Threshold:       cfg.LearningThreshold,
		ProviderTimeout: cfg.ProviderTimeout,
	})

	srv := server.New(server.Config{Host: cfg.APIHost, Port: cfg.APIPort}, server.Dependencies{
		Learning: learningService,
		Store:    patternStore,
		Jobs:     jobs.NewManager(),
		Metrics:  collector,
		Logger:   logger,
	})

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
