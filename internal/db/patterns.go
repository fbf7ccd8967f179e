// Pattern table query functions.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/l0l1/l0l1-go/internal/models"
)

// patternRow mirrors the pattern table. The ID comes back as a
// SurrealDB RecordID and is flattened to its string part in toModel.
type patternRow struct {
	ID            surrealmodels.RecordID `json:"id"`
	Query         string                 `json:"query"`
	WorkspaceID   string                 `json:"workspace_id"`
	Embedding     []float32              `json:"embedding,omitempty"`
	SuccessCount  int                    `json:"success_count"`
	ExecutionTime float64                `json:"execution_time"`
	ResultCount   int                    `json:"result_count"`
	SchemaContext *string                `json:"schema_context,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	LastUsed      time.Time              `json:"last_used"`
}

func (r *patternRow) toModel() models.PatternRecord {
	return models.PatternRecord{
		ID:              models.MustRecordIDString(r.ID),
		Query:           r.Query,
		WorkspaceID:     r.WorkspaceID,
		Embedding:       r.Embedding,
		SuccessCount:    r.SuccessCount,
		ExecutionTimeMs: r.ExecutionTime,
		ResultCount:     r.ResultCount,
		SchemaContext:   r.SchemaContext,
		CreatedAt:       r.CreatedAt,
		LastUsedAt:      r.LastUsed,
	}
}

func rowsToModels(rows []patternRow) []models.PatternRecord {
	out := make([]models.PatternRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out
}

// firstRow extracts the first record from a query result wrapper, or
// nil when the statement matched nothing.
func firstRow(results *[]surrealdb.QueryResult[[]patternRow]) *patternRow {
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil
	}
	return &(*results)[0].Result[0]
}

// sortColumns is the whitelist of ORDER BY targets for listing.
var sortColumns = map[string]bool{
	"last_used":      true,
	"success_count":  true,
	"execution_time": true,
	"created_at":     true,
}

// ValidSortColumn reports whether column is an allowed listing sort key.
func ValidSortColumn(column string) bool {
	return sortColumns[column]
}

// QueryUpsertPattern creates or reinforces a pattern in one statement.
// On first recording the row is created with success_count 1; on
// repeat recordings success_count increments, execution_time becomes a
// two-point rolling average, and last_used refreshes. An existing
// embedding is preserved when the new one is nil.
//
// execution_time is averaged before success_count moves, because SET
// clauses apply in order and the average must see the pre-increment
// state.
func (c *Client) QueryUpsertPattern(
	ctx context.Context,
	id string,
	query string,
	workspaceID string,
	embedding []float32,
	executionTimeMs float64,
	resultCount int,
	schemaContext *string,
) (*models.PatternRecord, error) {
	sql := `
		UPSERT type::record("pattern", $id) SET
			execution_time = IF success_count THEN (execution_time + $execution_time) / 2 ELSE $execution_time END,
			success_count = IF success_count THEN success_count + 1 ELSE 1 END,
			query = $query,
			workspace_id = $workspace_id,
			embedding = IF $embedding THEN $embedding ELSE embedding END,
			result_count = $result_count,
			schema_context = IF $schema_context THEN $schema_context ELSE schema_context END,
			created_at = IF created_at THEN created_at ELSE time::now() END,
			last_used = time::now()
		RETURN AFTER
	`

	vars := map[string]any{
		"id":             id,
		"query":          query,
		"workspace_id":   workspaceID,
		"embedding":      embedding,
		"execution_time": executionTimeMs,
		"result_count":   resultCount,
		"schema_context": schemaContext,
	}

	results, err := surrealdb.Query[[]patternRow](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("upsert pattern: %w", wrapQueryError(err))
	}

	row := firstRow(results)
	if row == nil {
		return nil, fmt.Errorf("upsert pattern: no record returned")
	}
	rec := row.toModel()
	return &rec, nil
}

// QueryImportPattern writes one record from an export snapshot into
// workspaceID. The snapshot's counters are authoritative; last_used
// refreshes to now, and an existing row keeps its created_at and its
// stored embedding when the snapshot carries none.
func (c *Client) QueryImportPattern(ctx context.Context, rec models.PatternRecord, workspaceID string) (*models.PatternRecord, error) {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	sql := `
		UPSERT type::record("pattern", $id) SET
			query = $query,
			workspace_id = $workspace_id,
			embedding = IF $embedding THEN $embedding ELSE embedding END,
			success_count = $success_count,
			execution_time = $execution_time,
			result_count = $result_count,
			schema_context = $schema_context,
			created_at = IF created_at THEN created_at ELSE $created_at END,
			last_used = time::now()
		RETURN AFTER
	`

	vars := map[string]any{
		"id":             rec.ID,
		"query":          rec.Query,
		"workspace_id":   workspaceID,
		"embedding":      rec.Embedding,
		"success_count":  rec.SuccessCount,
		"execution_time": rec.ExecutionTimeMs,
		"result_count":   rec.ResultCount,
		"schema_context": rec.SchemaContext,
		"created_at":     createdAt,
	}

	results, err := surrealdb.Query[[]patternRow](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("import pattern: %w", wrapQueryError(err))
	}

	row := firstRow(results)
	if row == nil {
		return nil, fmt.Errorf("import pattern: no record returned")
	}
	out := row.toModel()
	return &out, nil
}

// QueryGetPattern retrieves a pattern by ID. Returns nil if not found.
func (c *Client) QueryGetPattern(ctx context.Context, id string) (*models.PatternRecord, error) {
	results, err := surrealdb.Query[[]patternRow](ctx, c.db, `
		SELECT * FROM type::record("pattern", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get pattern: %w", wrapQueryError(err))
	}

	row := firstRow(results)
	if row == nil {
		return nil, nil
	}
	rec := row.toModel()
	return &rec, nil
}

// QueryListPatterns returns a page of patterns plus the total count for
// the same filter. sortBy must already be validated against
// ValidSortColumn; unknown values fall back to last_used. order is
// "asc" or "desc"; anything else falls back to desc.
func (c *Client) QueryListPatterns(
	ctx context.Context,
	workspaceID *string,
	sortBy, order string,
	limit, offset int,
) ([]models.PatternRecord, int, error) {
	if !sortColumns[sortBy] {
		sortBy = "last_used"
	}
	direction := "DESC"
	if order == "asc" {
		direction = "ASC"
	}

	whereClause := ""
	vars := map[string]any{
		"limit":  limit,
		"offset": offset,
	}
	if workspaceID != nil {
		whereClause = "WHERE workspace_id = $workspace_id"
		vars["workspace_id"] = *workspaceID
	}

	sql := fmt.Sprintf(`
		SELECT * OMIT embedding FROM pattern %s ORDER BY %s %s LIMIT $limit START $offset
	`, whereClause, sortBy, direction)

	results, err := surrealdb.Query[[]patternRow](ctx, c.db, sql, vars)
	if err != nil {
		return nil, 0, fmt.Errorf("list patterns: %w", wrapQueryError(err))
	}

	var rows []patternRow
	if results != nil && len(*results) > 0 {
		rows = (*results)[0].Result
	}

	total, err := c.queryCount(ctx, workspaceID)
	if err != nil {
		return nil, 0, err
	}

	return rowsToModels(rows), total, nil
}

type countRow struct {
	Count int `json:"count"`
}

func (c *Client) queryCount(ctx context.Context, workspaceID *string) (int, error) {
	whereClause := ""
	vars := map[string]any{}
	if workspaceID != nil {
		whereClause = "WHERE workspace_id = $workspace_id"
		vars["workspace_id"] = *workspaceID
	}

	sql := fmt.Sprintf(`SELECT count() AS count FROM pattern %s GROUP ALL`, whereClause)
	results, err := surrealdb.Query[[]countRow](ctx, c.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("count patterns: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Count, nil
}

// QueryPatternsWithEmbeddings returns all patterns in a workspace that
// carry an embedding, as candidates for similarity ranking.
func (c *Client) QueryPatternsWithEmbeddings(ctx context.Context, workspaceID *string) ([]models.PatternRecord, error) {
	whereClause := "WHERE embedding != NONE"
	vars := map[string]any{}
	if workspaceID != nil {
		whereClause += " AND workspace_id = $workspace_id"
		vars["workspace_id"] = *workspaceID
	}

	sql := fmt.Sprintf(`SELECT * FROM pattern %s`, whereClause)
	results, err := surrealdb.Query[[]patternRow](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("patterns with embeddings: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.PatternRecord{}, nil
	}
	return rowsToModels((*results)[0].Result), nil
}

// updateColumns is the whitelist of columns UpdatePattern may touch.
var updateColumns = map[string]bool{
	"query":          true,
	"embedding":      true,
	"execution_time": true,
	"result_count":   true,
	"schema_context": true,
}

// QueryUpdatePattern applies a partial update to a pattern. Keys of set
// must be valid column names per updateColumns; unknown keys are
// ignored. Returns ErrNotFound if the pattern does not exist.
func (c *Client) QueryUpdatePattern(ctx context.Context, id string, set map[string]any) (*models.PatternRecord, error) {
	setClause := ""
	vars := map[string]any{"id": id}
	for col, val := range set {
		if !updateColumns[col] {
			continue
		}
		if setClause != "" {
			setClause += ", "
		}
		setClause += fmt.Sprintf("%s = $%s", col, col)
		vars[col] = val
	}
	if setClause == "" {
		return c.getOrNotFound(ctx, id)
	}

	sql := fmt.Sprintf(`
		UPDATE type::record("pattern", $id) SET %s, last_used = time::now() RETURN AFTER
	`, setClause)

	results, err := surrealdb.Query[[]patternRow](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("update pattern: %w", wrapQueryError(err))
	}

	row := firstRow(results)
	if row == nil {
		return nil, fmt.Errorf("update pattern %s: %w", id, ErrNotFound)
	}
	rec := row.toModel()
	return &rec, nil
}

func (c *Client) getOrNotFound(ctx context.Context, id string) (*models.PatternRecord, error) {
	rec, err := c.QueryGetPattern(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("pattern %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

// QueryAdjustConfidence shifts a pattern's success count by
// delta (derived from a confidence adjustment), clamped to at least 1
// so a pattern never drops out of the derived-confidence range.
// Returns ErrNotFound if the pattern does not exist.
func (c *Client) QueryAdjustConfidence(ctx context.Context, id string, delta int) (*models.PatternRecord, error) {
	results, err := surrealdb.Query[[]patternRow](ctx, c.db, `
		UPDATE type::record("pattern", $id) SET
			success_count = math::max([1, success_count + $delta]),
			last_used = time::now()
		RETURN AFTER
	`, map[string]any{"id": id, "delta": delta})
	if err != nil {
		return nil, fmt.Errorf("adjust confidence: %w", wrapQueryError(err))
	}

	row := firstRow(results)
	if row == nil {
		return nil, fmt.Errorf("pattern %s: %w", id, ErrNotFound)
	}
	rec := row.toModel()
	return &rec, nil
}

// QueryDeletePattern removes a pattern by ID. Returns ErrNotFound if it
// did not exist.
func (c *Client) QueryDeletePattern(ctx context.Context, id string) error {
	results, err := surrealdb.Query[[]patternRow](ctx, c.db, `
		DELETE type::record("pattern", $id) RETURN BEFORE
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete pattern: %w", wrapQueryError(err))
	}

	if firstRow(results) == nil {
		return fmt.Errorf("pattern %s: %w", id, ErrNotFound)
	}
	return nil
}

// QueryBulkDelete removes patterns matching the given criteria and
// returns how many were deleted. When ids is non-empty the workspace
// criterion is ignored. The age criterion stands on its own, keyed on
// created_at: rows created before the cutoff are deleted whether or
// not ids or workspace selected them.
func (c *Client) QueryBulkDelete(
	ctx context.Context,
	ids []string,
	workspaceID *string,
	olderThanDays *int,
) (int, error) {
	var clauses []string
	vars := map[string]any{}

	switch {
	case len(ids) > 0:
		clauses = append(clauses, `array::find_index($ids, record::id(id)) != NONE`)
		vars["ids"] = ids
	case workspaceID != nil:
		clauses = append(clauses, "workspace_id = $workspace_id")
		vars["workspace_id"] = *workspaceID
	}

	if olderThanDays != nil {
		clauses = append(clauses, "created_at < (time::now() - duration::from::days($days))")
		vars["days"] = *olderThanDays
	}

	if len(clauses) == 0 {
		return 0, nil
	}

	whereClause := clauses[0]
	for _, c := range clauses[1:] {
		whereClause += " OR " + c
	}

	sql := fmt.Sprintf(`DELETE pattern WHERE %s RETURN BEFORE`, whereClause)
	results, err := surrealdb.Query[[]patternRow](ctx, c.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return 0, nil
	}
	return len((*results)[0].Result), nil
}

type statsRow struct {
	Total            int     `json:"total"`
	AvgExecutionTime float64 `json:"avg_execution_time"`
}

// QueryStats aggregates learning statistics, optionally scoped to one
// workspace. Recent activity counts patterns used in the last 7 days.
func (c *Client) QueryStats(ctx context.Context, workspaceID *string) (*models.LearningStats, error) {
	whereClause := ""
	recentClause := "WHERE last_used > (time::now() - 7d)"
	vars := map[string]any{}
	if workspaceID != nil {
		whereClause = "WHERE workspace_id = $workspace_id"
		recentClause += " AND workspace_id = $workspace_id"
		vars["workspace_id"] = *workspaceID
	}

	sql := fmt.Sprintf(`
		SELECT count() AS total, math::mean(execution_time) AS avg_execution_time FROM pattern %s GROUP ALL;
		SELECT query, success_count FROM pattern %s ORDER BY success_count DESC LIMIT 1;
		SELECT count() AS total FROM pattern %s GROUP ALL;
	`, whereClause, whereClause, recentClause)

	results, err := surrealdb.Query[any](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("pattern stats: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) != 3 {
		return nil, fmt.Errorf("pattern stats: unexpected result shape")
	}

	stats := &models.LearningStats{}

	if rows, ok := (*results)[0].Result.([]any); ok && len(rows) > 0 {
		if row, ok := rows[0].(map[string]any); ok {
			stats.TotalQueries = toInt(row["total"])
			stats.AvgExecutionTimeMs = toFloat(row["avg_execution_time"])
		}
	}

	if rows, ok := (*results)[1].Result.([]any); ok && len(rows) > 0 {
		if row, ok := rows[0].(map[string]any); ok {
			query, _ := row["query"].(string)
			stats.MostSuccessful = &models.MostSuccessful{
				Query:        models.TruncateQuery(query, 100),
				SuccessCount: toInt(row["success_count"]),
			}
		}
	}

	if rows, ok := (*results)[2].Result.([]any); ok && len(rows) > 0 {
		if row, ok := rows[0].(map[string]any); ok {
			stats.RecentActivity = toInt(row["total"])
		}
	}

	return stats, nil
}

// CBOR decodes SurrealDB numbers into varying Go types depending on
// the value; these helpers normalize them.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return 0
}

// QueryExportPatterns returns every pattern for export, embeddings
// omitted (provider-specific and large; re-derived on the next
// recording after import).
func (c *Client) QueryExportPatterns(ctx context.Context, workspaceID *string) ([]models.PatternRecord, error) {
	whereClause := ""
	vars := map[string]any{}
	if workspaceID != nil {
		whereClause = "WHERE workspace_id = $workspace_id"
		vars["workspace_id"] = *workspaceID
	}

	sql := fmt.Sprintf(`SELECT * OMIT embedding FROM pattern %s ORDER BY last_used DESC`, whereClause)
	results, err := surrealdb.Query[[]patternRow](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("export patterns: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.PatternRecord{}, nil
	}
	return rowsToModels((*results)[0].Result), nil
}
