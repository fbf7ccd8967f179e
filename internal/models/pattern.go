// Package models defines data structures for the l0l1 learning store.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// PatternRecord is one learned SQL query pattern.
// The ID is a content hash of the normalized query text, so repeated
// recordings of the same query collapse onto a single record.
type PatternRecord struct {
	ID              string    `json:"id"`
	Query           string    `json:"query"`
	WorkspaceID     string    `json:"workspace_id"`
	Embedding       []float32 `json:"embedding,omitempty"`
	SuccessCount    int       `json:"success_count"`
	ExecutionTimeMs float64   `json:"execution_time"`
	ResultCount     int       `json:"result_count"`
	SchemaContext   *string   `json:"schema_context,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	LastUsedAt      time.Time `json:"last_used"`
}

// Confidence derives the pattern confidence from its success count.
// Never stored; always recomputed so the two cannot drift.
func (p *PatternRecord) Confidence() float64 {
	c := float64(p.SuccessCount) / 10.0
	if c > 1.0 {
		return 1.0
	}
	return c
}

// Summary returns the listing projection of the record, without the
// embedding (large and never needed by listing consumers).
func (p *PatternRecord) Summary() PatternSummary {
	return PatternSummary{
		ID:              p.ID,
		Query:           p.Query,
		WorkspaceID:     p.WorkspaceID,
		SuccessCount:    p.SuccessCount,
		ExecutionTimeMs: p.ExecutionTimeMs,
		ResultCount:     p.ResultCount,
		SchemaContext:   p.SchemaContext,
		Confidence:      p.Confidence(),
		CreatedAt:       p.CreatedAt,
		LastUsedAt:      p.LastUsedAt,
	}
}

// PatternSummary is a PatternRecord without its embedding, plus the
// derived confidence. Used by listing, export and API responses.
type PatternSummary struct {
	ID              string    `json:"id"`
	Query           string    `json:"query"`
	WorkspaceID     string    `json:"workspace_id"`
	SuccessCount    int       `json:"success_count"`
	ExecutionTimeMs float64   `json:"execution_time"`
	ResultCount     int       `json:"result_count"`
	SchemaContext   *string   `json:"schema_context,omitempty"`
	Confidence      float64   `json:"confidence"`
	CreatedAt       time.Time `json:"created_at"`
	LastUsedAt      time.Time `json:"last_used"`
}

// SimilarityMatch pairs a pattern with its similarity score against a
// query embedding.
type SimilarityMatch struct {
	Pattern PatternRecord `json:"pattern"`
	Score   float64       `json:"score"`
}

// MostSuccessful describes the pattern with the highest success count.
type MostSuccessful struct {
	Query        string `json:"query"`
	SuccessCount int    `json:"success_count"`
}

// LearningStats aggregates store-wide learning statistics.
type LearningStats struct {
	TotalQueries       int             `json:"total_queries"`
	AvgExecutionTimeMs float64         `json:"avg_execution_time"`
	MostSuccessful     *MostSuccessful `json:"most_successful"`
	RecentActivity     int             `json:"recent_activity"`
}

// ImportReport summarizes a bulk pattern import.
type ImportReport struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// Improvement is the result of improving a query with learned
// patterns and model correction.
type Improvement struct {
	ImprovedQuery   string   `json:"improved_query"`
	Confidence      float64  `json:"confidence"`
	LearningApplied bool     `json:"learning_applied"`
	Suggestions     []string `json:"suggestions"`
}

// ValidationReport is the model's structured assessment of a query.
type ValidationReport struct {
	IsValid     bool     `json:"is_valid"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
	Severity    string   `json:"severity"`
}

// NormalizeQuery lowercases the query and collapses all runs of
// whitespace to single spaces. Pattern identity is defined over this
// normalized form.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// PatternID derives the stable pattern ID from query text: the sha256
// hex digest of the normalized query. Idempotent by construction.
func PatternID(query string) string {
	sum := sha256.Sum256([]byte(NormalizeQuery(query)))
	return hex.EncodeToString(sum[:])
}

// TruncateQuery shortens a query for display, appending "..." when cut.
func TruncateQuery(query string, maxLen int) string {
	if len(query) <= maxLen {
		return query
	}
	return query[:maxLen] + "..."
}
