// Package store defines the pattern store contract and its two
// implementations: SurrealDB-backed for production and in-memory for
// tests and ephemeral runs.
package store

import (
	"context"

	"github.com/l0l1/l0l1-go/internal/models"
)

// RecordInput carries one successful query execution into the store.
type RecordInput struct {
	Query           string    `json:"query"`
	WorkspaceID     string    `json:"workspace_id"`
	Embedding       []float32 `json:"embedding,omitempty"`
	ExecutionTimeMs float64   `json:"execution_time"`
	ResultCount     int       `json:"result_count"`
	SchemaContext   *string   `json:"schema_context,omitempty"`
}

// ListOptions selects and orders a page of patterns.
type ListOptions struct {
	WorkspaceID *string
	SortBy      string // one of the sortColumns whitelist; default last_used
	Order       string // "asc" or "desc"; default desc
	Limit       int
	Offset      int
}

// ListResult is one page of patterns plus the total matching count.
type ListResult struct {
	Patterns []models.PatternRecord `json:"patterns"`
	Total    int                    `json:"total"`
}

// UpdateFields is a partial update; nil fields stay untouched.
type UpdateFields struct {
	Query           *string   `json:"query,omitempty"`
	Embedding       []float32 `json:"embedding,omitempty"`
	ExecutionTimeMs *float64  `json:"execution_time,omitempty"`
	ResultCount     *int      `json:"result_count,omitempty"`
	SchemaContext   *string   `json:"schema_context,omitempty"`
}

// BulkDeleteCriteria names which patterns a bulk delete removes. When
// IDs is non-empty the workspace criterion is ignored. OlderThanDays
// is an independent criterion keyed on creation time: patterns created
// more than that many days ago are deleted in addition to whatever the
// IDs or workspace criterion selected.
type BulkDeleteCriteria struct {
	IDs           []string `json:"ids,omitempty"`
	WorkspaceID   *string  `json:"workspace_id,omitempty"`
	OlderThanDays *int     `json:"older_than_days,omitempty"`
}

// PatternStore is the persistence contract for learned SQL patterns.
// Upsert is keyed on the content hash of the normalized query, so
// recording the same query twice reinforces one record instead of
// duplicating it.
type PatternStore interface {
	// Upsert records a successful execution: creates the pattern or
	// reinforces it (success count +1, execution time averaged,
	// last_used refreshed, stored embedding kept when input has none).
	Upsert(ctx context.Context, input RecordInput) (*models.PatternRecord, error)

	// Get returns a pattern by ID or ErrNotFound.
	Get(ctx context.Context, id string) (*models.PatternRecord, error)

	// List returns a page of patterns (embeddings omitted) plus the
	// total count for the same filter.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// Candidates returns all patterns in scope that carry an
	// embedding, for similarity ranking.
	Candidates(ctx context.Context, workspaceID *string) ([]models.PatternRecord, error)

	// Update applies a partial update and returns the new state.
	Update(ctx context.Context, id string, fields UpdateFields) (*models.PatternRecord, error)

	// Delete removes one pattern or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// BulkDelete removes everything matching criteria and reports the
	// count. Empty criteria delete nothing.
	BulkDelete(ctx context.Context, criteria BulkDeleteCriteria) (int, error)

	// AdjustConfidence shifts a pattern's derived confidence by
	// adjustment in [-1, 1], mapped onto its success count and clamped
	// so the count never drops below 1.
	AdjustConfidence(ctx context.Context, id string, adjustment float64) (*models.PatternRecord, error)

	// Stats aggregates learning statistics for a workspace, or
	// store-wide when workspaceID is nil.
	Stats(ctx context.Context, workspaceID *string) (*models.LearningStats, error)

	// Export returns all patterns in scope without embeddings.
	Export(ctx context.Context, workspaceID *string) ([]models.PatternRecord, error)

	// Import writes a previously exported snapshot into workspaceID.
	// Existing patterns are skipped unless overwrite is set; an
	// overwrite moves the pattern into workspaceID and refreshes
	// last_used while keeping the row's original created_at.
	Import(ctx context.Context, patterns []models.PatternRecord, workspaceID string, overwrite bool) (*models.ImportReport, error)
}

// sortColumns whitelists List sort keys; anything else is rejected
// before touching storage.
var sortColumns = map[string]bool{
	"last_used":      true,
	"success_count":  true,
	"execution_time": true,
	"created_at":     true,
}

const (
	defaultSortBy = "last_used"
	defaultOrder  = "desc"
	defaultLimit  = 50
)

// confidenceScale maps a [-1, 1] confidence adjustment onto success
// count steps.
const confidenceScale = 10

func validateRecordInput(input RecordInput) error {
	if input.Query == "" {
		return &ValidationError{Field: "query", Message: "must not be empty"}
	}
	if input.WorkspaceID == "" {
		return &ValidationError{Field: "workspace_id", Message: "must not be empty"}
	}
	if input.ExecutionTimeMs < 0 {
		return &ValidationError{Field: "execution_time", Message: "must not be negative"}
	}
	if input.ResultCount < 0 {
		return &ValidationError{Field: "result_count", Message: "must not be negative"}
	}
	return nil
}

func normalizeListOptions(opts *ListOptions) error {
	if opts.SortBy == "" {
		opts.SortBy = defaultSortBy
	}
	if !sortColumns[opts.SortBy] {
		return &ValidationError{Field: "sort_by", Message: "unknown sort column: " + opts.SortBy}
	}
	if opts.Order == "" {
		opts.Order = defaultOrder
	}
	if opts.Order != "asc" && opts.Order != "desc" {
		return &ValidationError{Field: "order", Message: "must be asc or desc"}
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return nil
}

func validateAdjustment(adjustment float64) error {
	if adjustment < -1.0 || adjustment > 1.0 {
		return &ValidationError{Field: "adjustment", Message: "must be within [-1, 1]"}
	}
	return nil
}

// adjustmentDelta converts a confidence adjustment to success count
// steps. The fraction truncates toward zero rather than rounding, so
// +0.25 maps to +2 steps and -0.35 to -3.
func adjustmentDelta(adjustment float64) int {
	return int(adjustment * confidenceScale)
}
