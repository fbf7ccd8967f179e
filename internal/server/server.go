// Package server provides the REST API for the learning store: SQL
// assistance endpoints, learning operations, pattern administration
// and a websocket event feed.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/l0l1/l0l1-go/internal/jobs"
	"github.com/l0l1/l0l1-go/internal/learning"
	"github.com/l0l1/l0l1-go/internal/metrics"
	"github.com/l0l1/l0l1-go/internal/store"
)

// Config holds the HTTP listener settings.
type Config struct {
	Host string
	Port string
}

// Dependencies wires the server's collaborators.
type Dependencies struct {
	Learning *learning.Service
	Store    store.PatternStore
	Jobs     *jobs.Manager
	Metrics  *metrics.Collector
	Logger   *slog.Logger
}

// Server is the REST API server.
type Server struct {
	learning *learning.Service
	store    store.PatternStore
	jobs     *jobs.Manager
	metrics  *metrics.Collector
	logger   *slog.Logger
	hub      *Hub

	httpServer *http.Server
}

// New creates a server with all routes registered.
func New(cfg Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		learning: deps.Learning,
		store:    deps.Store,
		jobs:     deps.Jobs,
		metrics:  deps.Metrics,
		logger:   logger,
		hub:      NewHub(logger),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /sql/complete", s.handleComplete)
	mux.HandleFunc("POST /sql/correct", s.handleCorrect)
	mux.HandleFunc("POST /sql/validate", s.handleValidate)
	mux.HandleFunc("POST /sql/explain", s.handleExplain)
	mux.HandleFunc("POST /sql/check-pii", s.handleCheckPII)

	mux.HandleFunc("POST /learning/record", s.handleRecord)
	mux.HandleFunc("GET /learning/similar", s.handleSimilar)
	mux.HandleFunc("GET /learning/stats", s.handleStats)

	mux.HandleFunc("GET /patterns", s.handleListPatterns)
	mux.HandleFunc("GET /patterns/export", s.handleExport)
	mux.HandleFunc("POST /patterns/import", s.handleImport)
	mux.HandleFunc("POST /patterns/adjust-confidence", s.handleAdjustConfidence)
	mux.HandleFunc("POST /patterns/bulk-delete", s.handleBulkDelete)
	mux.HandleFunc("GET /patterns/{id}", s.handleGetPattern)
	mux.HandleFunc("PATCH /patterns/{id}", s.handleUpdatePattern)
	mux.HandleFunc("DELETE /patterns/{id}", s.handleDeletePattern)

	mux.HandleFunc("GET /jobs", s.handleListJobs)
	mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)

	mux.HandleFunc("GET /stats/runtime", s.handleRuntimeStats)

	mux.HandleFunc("GET /events", s.hub.ServeWS)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      LoggingMiddleware(logger)(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // Long for LLM responses
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("API server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the event feed.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}
