// Package learning orchestrates the continuous learning loop: recording
// successful queries, retrieving similar patterns and applying them to
// completions and corrections.
package learning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/l0l1/l0l1-go/internal/metrics"
	"github.com/l0l1/l0l1-go/internal/models"
	"github.com/l0l1/l0l1-go/internal/pii"
	"github.com/l0l1/l0l1-go/internal/similarity"
	"github.com/l0l1/l0l1-go/internal/store"
)

const (
	// suggestionThreshold is the looser cutoff used when mixing
	// learned patterns into completion suggestions.
	suggestionThreshold = 0.6

	// maxSimilarSuggestions caps how many learned patterns join the
	// suggestion list.
	maxSimilarSuggestions = 3

	// maxSuggestions caps the combined suggestion list.
	maxSuggestions = 5

	// improveSimilarLimit is how many patterns guide a correction.
	improveSimilarLimit = 3
)

// Embedder is the slice of the embedding client the service needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SQLModel is the slice of the LLM client the service needs.
type SQLModel interface {
	CompleteSQL(ctx context.Context, partialQuery, schemaContext string, tableSuggestions []string) (string, error)
	CorrectSQL(ctx context.Context, query, errorMessage, schemaContext string) (string, error)
	ExplainSQL(ctx context.Context, query, schemaContext string) (string, error)
	ValidateSQL(ctx context.Context, query, schemaContext string) (*models.ValidationReport, error)
}

// Config wires the service's collaborators. Embedder, Model, Detector
// and Metrics may each be nil; the service degrades gracefully without
// them.
type Config struct {
	Store     store.PatternStore
	Embedder  Embedder
	Model     SQLModel
	Detector  *pii.Detector
	Metrics   *metrics.Collector
	Enabled   bool
	Threshold float64

	// ProviderTimeout bounds every embedding and LLM call. Zero means
	// no extra deadline beyond the caller's context.
	ProviderTimeout time.Duration
}

// Service is the learning orchestrator.
type Service struct {
	store           store.PatternStore
	embedder        Embedder
	model           SQLModel
	detector        *pii.Detector
	metrics         *metrics.Collector
	enabled         bool
	threshold       float64
	providerTimeout time.Duration
}

// NewService creates the orchestrator. A zero threshold falls back to
// 0.8.
func NewService(cfg Config) *Service {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 0.8
	}
	return &Service{
		store:           cfg.Store,
		embedder:        cfg.Embedder,
		model:           cfg.Model,
		detector:        cfg.Detector,
		metrics:         cfg.Metrics,
		enabled:         cfg.Enabled,
		threshold:       threshold,
		providerTimeout: cfg.ProviderTimeout,
	}
}

// Enabled reports whether learning is active.
func (s *Service) Enabled() bool {
	return s.enabled
}

// Threshold returns the default similarity threshold.
func (s *Service) Threshold() float64 {
	return s.threshold
}

func (s *Service) providerCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.providerTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.providerTimeout)
}

// RecordSuccessfulQuery stores or reinforces a pattern for a query that
// executed successfully. PII is redacted before anything is persisted,
// and an embedding failure downgrades to a pattern without an embedding
// instead of losing the recording. Returns false when learning is
// disabled.
func (s *Service) RecordSuccessfulQuery(ctx context.Context, input store.RecordInput) (bool, error) {
	if !s.enabled {
		return false, nil
	}

	if s.detector != nil && !s.detector.IsSafe(input.Query) {
		slog.Warn("query contains PII, sanitizing before storage", "workspace", input.WorkspaceID)
		input.Query = s.detector.Sanitize(input.Query)
	}

	if input.Embedding == nil && s.embedder != nil {
		embedding, err := s.embed(ctx, input.Query)
		if err != nil {
			slog.Warn("embedding failed, recording pattern without one", "error", err)
		} else {
			input.Embedding = embedding
		}
	}

	start := time.Now()
	_, err := s.store.Upsert(ctx, input)
	s.recordTiming(metrics.OpStoreUpsert, start, err)
	if err != nil {
		return false, fmt.Errorf("record query: %w", err)
	}

	return true, nil
}

// SimilarQueries returns stored patterns whose embeddings score at or
// above threshold against the query. A non-positive threshold uses the
// configured default. Degrades to an empty result when learning is
// disabled, no embedder is wired, or the embedding call fails.
func (s *Service) SimilarQueries(ctx context.Context, query, workspaceID string, threshold float64, limit int) ([]models.SimilarityMatch, error) {
	if !s.enabled || s.embedder == nil {
		return []models.SimilarityMatch{}, nil
	}
	if threshold <= 0 {
		threshold = s.threshold
	}

	queryEmbedding, err := s.embed(ctx, query)
	if err != nil {
		slog.Warn("embedding failed, similarity search returns nothing", "error", err)
		return []models.SimilarityMatch{}, nil
	}

	var workspace *string
	if workspaceID != "" {
		workspace = &workspaceID
	}

	start := time.Now()
	candidates, err := s.store.Candidates(ctx, workspace)
	s.recordTiming(metrics.OpStoreSearch, start, err)
	if err != nil {
		return nil, fmt.Errorf("similar queries: %w", err)
	}

	return similarity.Rank(queryEmbedding, candidates, threshold, limit), nil
}

// Suggestions combines the model's completion with up to three learned
// patterns, capped at five entries. The AI completion always leads
// when available. Duplicates are dropped by normalized query text, so
// two suggestions differing only in case or whitespace count as one;
// that is stricter than comparing the raw strings.
func (s *Service) Suggestions(ctx context.Context, partialQuery, workspaceID, schemaContext string) ([]string, error) {
	suggestions := []string{}

	if s.model != nil {
		completed, err := s.completeSQL(ctx, partialQuery, schemaContext)
		if err != nil {
			slog.Warn("completion failed, falling back to learned patterns", "error", err)
		} else if completed != "" {
			suggestions = append(suggestions, completed)
		}
	}

	matches, err := s.SimilarQueries(ctx, partialQuery, workspaceID, suggestionThreshold, maxSimilarSuggestions)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(suggestions))
	for _, sg := range suggestions {
		seen[models.NormalizeQuery(sg)] = true
	}
	for _, m := range matches {
		key := models.NormalizeQuery(m.Pattern.Query)
		if seen[key] {
			continue
		}
		seen[key] = true
		suggestions = append(suggestions, m.Pattern.Query)
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, nil
}

// ImproveQuery corrects a query using the model, guided by similar
// learned patterns. Confidence is 0.8 when learned patterns informed
// the correction, 0.6 otherwise. Without a model the best matching
// pattern stands in, carrying its similarity score; with nothing at all
// the original query comes back at 0.0.
func (s *Service) ImproveQuery(ctx context.Context, query, errorMessage, workspaceID, schemaContext string) (*models.Improvement, error) {
	matches, err := s.SimilarQueries(ctx, query, workspaceID, 0, improveSimilarLimit)
	if err != nil {
		return nil, err
	}
	learningApplied := len(matches) > 0

	var patternSuggestions []string
	for _, m := range matches {
		patternSuggestions = append(patternSuggestions, m.Pattern.Query)
	}

	if s.model != nil {
		corrected, err := s.correctSQL(ctx, query, errorMessage, hintedContext(schemaContext, matches))
		if err != nil {
			slog.Warn("correction failed, falling back to learned patterns", "error", err)
		} else if corrected != "" {
			confidence := 0.6
			if learningApplied {
				confidence = 0.8
			}
			return &models.Improvement{
				ImprovedQuery:   corrected,
				Confidence:      confidence,
				LearningApplied: learningApplied,
				Suggestions:     patternSuggestions,
			}, nil
		}
	}

	if learningApplied {
		best := matches[0]
		return &models.Improvement{
			ImprovedQuery:   best.Pattern.Query,
			Confidence:      best.Score,
			LearningApplied: true,
			Suggestions:     patternSuggestions,
		}, nil
	}

	return &models.Improvement{
		ImprovedQuery:   query,
		Confidence:      0.0,
		LearningApplied: false,
		Suggestions:     []string{},
	}, nil
}

// hintedContext folds the matched patterns into the schema context so
// the model sees what has worked before.
func hintedContext(schemaContext string, matches []models.SimilarityMatch) string {
	if len(matches) == 0 {
		return schemaContext
	}

	var b strings.Builder
	if schemaContext != "" {
		b.WriteString(schemaContext)
		b.WriteString("\n\n")
	}
	b.WriteString("Similar queries that executed successfully:")
	for _, m := range matches {
		b.WriteString("\n- ")
		b.WriteString(m.Pattern.Query)
	}
	return b.String()
}

// ExplainQuery returns a plain-language explanation of the query.
func (s *Service) ExplainQuery(ctx context.Context, query, schemaContext string) (string, error) {
	if s.model == nil {
		return "", fmt.Errorf("no language model configured")
	}

	pctx, cancel := s.providerCtx(ctx)
	defer cancel()
	return s.model.ExplainSQL(pctx, query, schemaContext)
}

// ValidateQuery returns the model's structured assessment of the query.
func (s *Service) ValidateQuery(ctx context.Context, query, schemaContext string) (*models.ValidationReport, error) {
	if s.model == nil {
		return nil, fmt.Errorf("no language model configured")
	}

	pctx, cancel := s.providerCtx(ctx)
	defer cancel()

	start := time.Now()
	report, err := s.model.ValidateSQL(pctx, query, schemaContext)
	s.recordTiming(metrics.OpLLMValidate, start, err)
	return report, err
}

// CheckPII reports detected PII in a query. With detection disabled it
// reports the text as safe.
func (s *Service) CheckPII(query string) ([]pii.Finding, bool) {
	if s.detector == nil {
		return []pii.Finding{}, true
	}
	findings := s.detector.Detect(query)
	return findings, len(findings) == 0
}

// Stats delegates to the store.
func (s *Service) Stats(ctx context.Context, workspaceID string) (*models.LearningStats, error) {
	var workspace *string
	if workspaceID != "" {
		workspace = &workspaceID
	}
	return s.store.Stats(ctx, workspace)
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	pctx, cancel := s.providerCtx(ctx)
	defer cancel()

	start := time.Now()
	embedding, err := s.embedder.Embed(pctx, text)
	s.recordTiming(metrics.OpEmbedding, start, err)
	return embedding, err
}

func (s *Service) completeSQL(ctx context.Context, partialQuery, schemaContext string) (string, error) {
	pctx, cancel := s.providerCtx(ctx)
	defer cancel()

	start := time.Now()
	out, err := s.model.CompleteSQL(pctx, partialQuery, schemaContext, nil)
	s.recordTiming(metrics.OpLLMComplete, start, err)
	return out, err
}

func (s *Service) correctSQL(ctx context.Context, query, errorMessage, schemaContext string) (string, error) {
	pctx, cancel := s.providerCtx(ctx)
	defer cancel()

	start := time.Now()
	out, err := s.model.CorrectSQL(pctx, query, errorMessage, schemaContext)
	s.recordTiming(metrics.OpLLMCorrect, start, err)
	return out, err
}

func (s *Service) recordTiming(op string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	if err != nil {
		s.metrics.RecordError(op)
		return
	}
	s.metrics.RecordTiming(op, time.Since(start))
}
