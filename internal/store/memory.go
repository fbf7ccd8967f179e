package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/l0l1/l0l1-go/internal/models"
)

// MemoryStore is a volatile PatternStore for tests and ephemeral runs.
// It mirrors SurrealStore semantics exactly, down to the reinforcement
// math, so the two are interchangeable behind the interface.
type MemoryStore struct {
	mu       sync.RWMutex
	patterns map[string]models.PatternRecord
	now      func() time.Time
}

var _ PatternStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock injects a clock, letting tests drive
// last_used-based behavior (recent activity, age-based deletion)
// without sleeping.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		patterns: make(map[string]models.PatternRecord),
		now:      now,
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, input RecordInput) (*models.PatternRecord, error) {
	if err := validateRecordInput(input); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := models.PatternID(input.Query)
	now := s.now()

	rec, exists := s.patterns[id]
	if exists {
		rec.ExecutionTimeMs = (rec.ExecutionTimeMs + input.ExecutionTimeMs) / 2
		rec.SuccessCount++
		rec.Query = input.Query
		rec.WorkspaceID = input.WorkspaceID
		if input.Embedding != nil {
			rec.Embedding = input.Embedding
		}
		rec.ResultCount = input.ResultCount
		if input.SchemaContext != nil {
			rec.SchemaContext = input.SchemaContext
		}
		rec.LastUsedAt = now
	} else {
		rec = models.PatternRecord{
			ID:              id,
			Query:           input.Query,
			WorkspaceID:     input.WorkspaceID,
			Embedding:       input.Embedding,
			SuccessCount:    1,
			ExecutionTimeMs: input.ExecutionTimeMs,
			ResultCount:     input.ResultCount,
			SchemaContext:   input.SchemaContext,
			CreatedAt:       now,
			LastUsedAt:      now,
		}
	}

	s.patterns[id] = rec
	return &rec, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.PatternRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.patterns[id]
	if !ok {
		return nil, fmt.Errorf("pattern %s: %w", id, ErrNotFound)
	}
	return &rec, nil
}

func (s *MemoryStore) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	if err := normalizeListOptions(&opts); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matching := s.collect(opts.WorkspaceID)
	s.mu.RUnlock()

	sortPatterns(matching, opts.SortBy, opts.Order)

	total := len(matching)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	page := make([]models.PatternRecord, 0, end-start)
	for _, rec := range matching[start:end] {
		rec.Embedding = nil
		page = append(page, rec)
	}

	return &ListResult{Patterns: page, Total: total}, nil
}

// collect snapshots all patterns in scope. Caller must hold the lock.
func (s *MemoryStore) collect(workspaceID *string) []models.PatternRecord {
	out := make([]models.PatternRecord, 0, len(s.patterns))
	for _, rec := range s.patterns {
		if workspaceID != nil && rec.WorkspaceID != *workspaceID {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func sortPatterns(recs []models.PatternRecord, sortBy, order string) {
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if order == "asc" {
			a, b = b, a
		}
		switch sortBy {
		case "success_count":
			if a.SuccessCount != b.SuccessCount {
				return a.SuccessCount > b.SuccessCount
			}
		case "execution_time":
			if a.ExecutionTimeMs != b.ExecutionTimeMs {
				return a.ExecutionTimeMs > b.ExecutionTimeMs
			}
		case "created_at":
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		default:
			if !a.LastUsedAt.Equal(b.LastUsedAt) {
				return a.LastUsedAt.After(b.LastUsedAt)
			}
		}
		return a.ID < b.ID
	})
}

func (s *MemoryStore) Candidates(ctx context.Context, workspaceID *string) ([]models.PatternRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.PatternRecord{}
	for _, rec := range s.patterns {
		if len(rec.Embedding) == 0 {
			continue
		}
		if workspaceID != nil && rec.WorkspaceID != *workspaceID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, fields UpdateFields) (*models.PatternRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.patterns[id]
	if !ok {
		return nil, fmt.Errorf("pattern %s: %w", id, ErrNotFound)
	}

	if fields.Query != nil {
		rec.Query = *fields.Query
	}
	if fields.Embedding != nil {
		rec.Embedding = fields.Embedding
	}
	if fields.ExecutionTimeMs != nil {
		rec.ExecutionTimeMs = *fields.ExecutionTimeMs
	}
	if fields.ResultCount != nil {
		rec.ResultCount = *fields.ResultCount
	}
	if fields.SchemaContext != nil {
		rec.SchemaContext = fields.SchemaContext
	}
	rec.LastUsedAt = s.now()

	s.patterns[id] = rec
	return &rec, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patterns[id]; !ok {
		return fmt.Errorf("pattern %s: %w", id, ErrNotFound)
	}
	delete(s.patterns, id)
	return nil
}

func (s *MemoryStore) BulkDelete(ctx context.Context, criteria BulkDeleteCriteria) (int, error) {
	if len(criteria.IDs) == 0 && criteria.WorkspaceID == nil && criteria.OlderThanDays == nil {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var cutoff time.Time
	if criteria.OlderThanDays != nil {
		cutoff = s.now().AddDate(0, 0, -*criteria.OlderThanDays)
	}

	idSet := make(map[string]bool, len(criteria.IDs))
	for _, id := range criteria.IDs {
		idSet[id] = true
	}

	deleted := 0
	for id, rec := range s.patterns {
		selected := false
		switch {
		case len(criteria.IDs) > 0:
			// IDs take precedence; the workspace criterion is ignored
			selected = idSet[id]
		case criteria.WorkspaceID != nil:
			selected = rec.WorkspaceID == *criteria.WorkspaceID
		}
		// Age is its own criterion, keyed on creation time: stale rows
		// go even when IDs or workspace selected something else, and
		// recent use does not save them.
		stale := criteria.OlderThanDays != nil && rec.CreatedAt.Before(cutoff)
		if !selected && !stale {
			continue
		}
		delete(s.patterns, id)
		deleted++
	}

	return deleted, nil
}

func (s *MemoryStore) AdjustConfidence(ctx context.Context, id string, adjustment float64) (*models.PatternRecord, error) {
	if err := validateAdjustment(adjustment); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.patterns[id]
	if !ok {
		return nil, fmt.Errorf("pattern %s: %w", id, ErrNotFound)
	}

	rec.SuccessCount += adjustmentDelta(adjustment)
	if rec.SuccessCount < 1 {
		rec.SuccessCount = 1
	}
	rec.LastUsedAt = s.now()

	s.patterns[id] = rec
	return &rec, nil
}

func (s *MemoryStore) Stats(ctx context.Context, workspaceID *string) (*models.LearningStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.LearningStats{}
	recentCutoff := s.now().AddDate(0, 0, -7)

	var totalTime float64
	var top *models.PatternRecord
	for _, rec := range s.patterns {
		if workspaceID != nil && rec.WorkspaceID != *workspaceID {
			continue
		}
		stats.TotalQueries++
		totalTime += rec.ExecutionTimeMs
		if rec.LastUsedAt.After(recentCutoff) {
			stats.RecentActivity++
		}
		if top == nil || rec.SuccessCount > top.SuccessCount {
			r := rec
			top = &r
		}
	}

	if stats.TotalQueries > 0 {
		stats.AvgExecutionTimeMs = totalTime / float64(stats.TotalQueries)
	}
	if top != nil {
		stats.MostSuccessful = &models.MostSuccessful{
			Query:        models.TruncateQuery(top.Query, 100),
			SuccessCount: top.SuccessCount,
		}
	}

	return stats, nil
}

func (s *MemoryStore) Export(ctx context.Context, workspaceID *string) ([]models.PatternRecord, error) {
	s.mu.RLock()
	matching := s.collect(workspaceID)
	s.mu.RUnlock()

	sortPatterns(matching, "last_used", "desc")
	for i := range matching {
		matching[i].Embedding = nil
	}
	return matching, nil
}

func (s *MemoryStore) Import(ctx context.Context, patterns []models.PatternRecord, workspaceID string, overwrite bool) (*models.ImportReport, error) {
	if workspaceID == "" {
		return nil, &ValidationError{Field: "workspace_id", Message: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	report := &models.ImportReport{Total: len(patterns)}
	for _, p := range patterns {
		if p.ID == "" {
			p.ID = models.PatternID(p.Query)
		}

		existing, exists := s.patterns[p.ID]
		if exists && !overwrite {
			report.Skipped++
			continue
		}

		rec := p
		rec.WorkspaceID = workspaceID
		rec.LastUsedAt = now
		if exists {
			// Overwriting keeps the row's original creation time and
			// its stored embedding when the snapshot has none.
			rec.CreatedAt = existing.CreatedAt
			if rec.Embedding == nil {
				rec.Embedding = existing.Embedding
			}
		} else if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}

		s.patterns[rec.ID] = rec
		report.Imported++
	}

	return report, nil
}
