package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/l0l1/l0l1-go/internal/db"
	"github.com/l0l1/l0l1-go/internal/models"
)

// SurrealStore is the durable PatternStore backed by SurrealDB. All
// reinforcement math runs inside single UPSERT statements, so
// concurrent recordings of the same query cannot lose counts.
type SurrealStore struct {
	client *db.Client
}

var _ PatternStore = (*SurrealStore)(nil)

// NewSurrealStore wraps an already connected client.
func NewSurrealStore(client *db.Client) *SurrealStore {
	return &SurrealStore{client: client}
}

func (s *SurrealStore) Upsert(ctx context.Context, input RecordInput) (*models.PatternRecord, error) {
	if err := validateRecordInput(input); err != nil {
		return nil, err
	}

	id := models.PatternID(input.Query)
	rec, err := s.client.QueryUpsertPattern(
		ctx, id, input.Query, input.WorkspaceID,
		input.Embedding, input.ExecutionTimeMs, input.ResultCount, input.SchemaContext,
	)
	if err != nil {
		return nil, storageErr("upsert", err)
	}
	return rec, nil
}

func (s *SurrealStore) Get(ctx context.Context, id string) (*models.PatternRecord, error) {
	rec, err := s.client.QueryGetPattern(ctx, id)
	if err != nil {
		return nil, storageErr("get", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("pattern %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

func (s *SurrealStore) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	if err := normalizeListOptions(&opts); err != nil {
		return nil, err
	}

	recs, total, err := s.client.QueryListPatterns(ctx, opts.WorkspaceID, opts.SortBy, opts.Order, opts.Limit, opts.Offset)
	if err != nil {
		return nil, storageErr("list", err)
	}
	return &ListResult{Patterns: recs, Total: total}, nil
}

func (s *SurrealStore) Candidates(ctx context.Context, workspaceID *string) ([]models.PatternRecord, error) {
	recs, err := s.client.QueryPatternsWithEmbeddings(ctx, workspaceID)
	if err != nil {
		return nil, storageErr("candidates", err)
	}
	return recs, nil
}

func (s *SurrealStore) Update(ctx context.Context, id string, fields UpdateFields) (*models.PatternRecord, error) {
	set := map[string]any{}
	if fields.Query != nil {
		set["query"] = *fields.Query
	}
	if fields.Embedding != nil {
		set["embedding"] = fields.Embedding
	}
	if fields.ExecutionTimeMs != nil {
		set["execution_time"] = *fields.ExecutionTimeMs
	}
	if fields.ResultCount != nil {
		set["result_count"] = *fields.ResultCount
	}
	if fields.SchemaContext != nil {
		set["schema_context"] = *fields.SchemaContext
	}

	rec, err := s.client.QueryUpdatePattern(ctx, id, set)
	if err != nil {
		return nil, mapNotFound("update", err)
	}
	return rec, nil
}

func (s *SurrealStore) Delete(ctx context.Context, id string) error {
	if err := s.client.QueryDeletePattern(ctx, id); err != nil {
		return mapNotFound("delete", err)
	}
	return nil
}

func (s *SurrealStore) BulkDelete(ctx context.Context, criteria BulkDeleteCriteria) (int, error) {
	count, err := s.client.QueryBulkDelete(ctx, criteria.IDs, criteria.WorkspaceID, criteria.OlderThanDays)
	if err != nil {
		return 0, storageErr("bulk delete", err)
	}
	return count, nil
}

func (s *SurrealStore) AdjustConfidence(ctx context.Context, id string, adjustment float64) (*models.PatternRecord, error) {
	if err := validateAdjustment(adjustment); err != nil {
		return nil, err
	}

	rec, err := s.client.QueryAdjustConfidence(ctx, id, adjustmentDelta(adjustment))
	if err != nil {
		return nil, mapNotFound("adjust confidence", err)
	}
	return rec, nil
}

func (s *SurrealStore) Stats(ctx context.Context, workspaceID *string) (*models.LearningStats, error) {
	stats, err := s.client.QueryStats(ctx, workspaceID)
	if err != nil {
		return nil, storageErr("stats", err)
	}
	return stats, nil
}

func (s *SurrealStore) Export(ctx context.Context, workspaceID *string) ([]models.PatternRecord, error) {
	recs, err := s.client.QueryExportPatterns(ctx, workspaceID)
	if err != nil {
		return nil, storageErr("export", err)
	}
	return recs, nil
}

func (s *SurrealStore) Import(ctx context.Context, patterns []models.PatternRecord, workspaceID string, overwrite bool) (*models.ImportReport, error) {
	if workspaceID == "" {
		return nil, &ValidationError{Field: "workspace_id", Message: "must not be empty"}
	}

	report := &models.ImportReport{Total: len(patterns)}

	for _, p := range patterns {
		if p.ID == "" {
			p.ID = models.PatternID(p.Query)
		}

		if !overwrite {
			existing, err := s.client.QueryGetPattern(ctx, p.ID)
			if err != nil {
				return nil, storageErr("import", err)
			}
			if existing != nil {
				report.Skipped++
				continue
			}
		}

		if _, err := s.client.QueryImportPattern(ctx, p, workspaceID); err != nil {
			return nil, storageErr("import", err)
		}
		report.Imported++
	}

	return report, nil
}

// mapNotFound translates the db sentinel to the store sentinel so
// callers never import internal/db for error checks.
func mapNotFound(op string, err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return storageErr(op, err)
}
