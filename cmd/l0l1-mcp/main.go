// Package main provides the entry point for the l0l1 MCP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/l0l1/l0l1-go/internal/config"
	"github.com/l0l1/l0l1-go/internal/db"
	"github.com/l0l1/l0l1-go/internal/embedding"
	"github.com/l0l1/l0l1-go/internal/learning"
	"github.com/l0l1/l0l1-go/internal/llm"
	"github.com/l0l1/l0l1-go/internal/mcp"
	"github.com/l0l1/l0l1-go/internal/pii"
	"github.com/l0l1/l0l1-go/internal/store"
	"github.com/l0l1/l0l1-go/internal/tools"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	// Log startup info
	logger.Info("l0l1-mcp starting",
		"version", version,
		"surrealdb_url", cfg.SurrealDBURL,
		"embed_model", cfg.EmbedModel,
		"llm_model", cfg.LLMModel,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

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

	// Initialize database schema
	if err := dbClient.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	// AI providers are optional; tools degrade without them.
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

	learningService := learning.NewService(learning.Config{
		Store:           store.NewSurrealStore(dbClient),
		Embedder:        embedder,
		Model:           model,
		Detector:        detector,
		Enabled:         cfg.EnableLearning,
		Threshold:       cfg.LearningThreshold,
		ProviderTimeout: cfg.ProviderTimeout,
	})

	// Create and setup server
	srv := mcp.New(version, logger)
	srv.Setup()

	// Register tools
	deps := &tools.Dependencies{
		Learning: learningService,
		Logger:   logger,
	}
	tools.RegisterAll(srv.MCPServer(), deps, &cfg)
	logger.Info("tools registered")

	// Log ready state
	logger.Info("server ready, awaiting connections")

	// Run server (blocks until disconnect or context cancelled)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
