// Package db_test contains integration tests for pattern query functions.
package db_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l0l1/l0l1-go/internal/db"
	"github.com/l0l1/l0l1-go/internal/models"
)

// uniqueWorkspace returns a workspace name no other test run shares, so
// workspace-scoped assertions don't see each other's rows.
func uniqueWorkspace(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func TestQueryUpsertPatternCreate(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("upsert_create")

	query := "SELECT * FROM users WHERE active = true"
	id := models.PatternID(query)

	rec, err := client.QueryUpsertPattern(ctx, id, query, ws, testEmbedding(), 120.0, 42, nil)
	require.NoError(t, err)

	assert.Equal(t, id, rec.ID)
	assert.Equal(t, query, rec.Query)
	assert.Equal(t, ws, rec.WorkspaceID)
	assert.Equal(t, 1, rec.SuccessCount, "first recording starts at 1")
	assert.InDelta(t, 120.0, rec.ExecutionTimeMs, 1e-6)
	assert.Equal(t, 42, rec.ResultCount)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.False(t, rec.LastUsedAt.IsZero())
}

func TestQueryUpsertPatternReinforce(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("upsert_reinforce")

	query := "SELECT id FROM orders WHERE total > 100"
	id := models.PatternID(query)

	first, err := client.QueryUpsertPattern(ctx, id, query, ws, testEmbedding(), 100.0, 5, nil)
	require.NoError(t, err)
	require.Equal(t, 1, first.SuccessCount)

	second, err := client.QueryUpsertPattern(ctx, id, query, ws, nil, 200.0, 7, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same normalized query collapses onto one record")
	assert.Equal(t, 2, second.SuccessCount)
	assert.InDelta(t, 150.0, second.ExecutionTimeMs, 1e-6, "execution time is a two-point rolling average")
	assert.Equal(t, 7, second.ResultCount)
	assert.NotEmpty(t, second.Embedding, "nil embedding on reinforce preserves the stored one")
	assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix(), "created_at never moves")
	assert.False(t, second.LastUsedAt.Before(first.LastUsedAt), "last_used refreshes")

	_, total, err := client.QueryListPatterns(ctx, &ws, "last_used", "desc", 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total, "no duplicate row after reinforce")
}

func TestQueryGetPattern(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("get")

	missing, err := client.QueryGetPattern(ctx, models.PatternID("select nothing"))
	require.NoError(t, err)
	assert.Nil(t, missing, "should return nil for non-existent pattern")

	query := "SELECT name FROM products"
	id := models.PatternID(query)
	_, err = client.QueryUpsertPattern(ctx, id, query, ws, testEmbedding(), 50.0, 3, nil)
	require.NoError(t, err)

	rec, err := client.QueryGetPattern(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, query, rec.Query)
}

func TestQueryListPatterns(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("list")

	queries := []string{
		"SELECT 1 FROM a",
		"SELECT 2 FROM b",
		"SELECT 3 FROM c",
	}
	for i, q := range queries {
		// Reinforce later queries more so success_count ordering is deterministic
		id := models.PatternID(q)
		for j := 0; j <= i; j++ {
			_, err := client.QueryUpsertPattern(ctx, id, q, ws, testEmbedding(), 10.0, 1, nil)
			require.NoError(t, err)
		}
	}

	recs, total, err := client.QueryListPatterns(ctx, &ws, "success_count", "desc", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total, "total covers the whole filter, not the page")
	require.Len(t, recs, 2)
	assert.Equal(t, "SELECT 3 FROM c", recs[0].Query)
	assert.Equal(t, 3, recs[0].SuccessCount)
	assert.Empty(t, recs[0].Embedding, "listing omits embeddings")

	page2, _, err := client.QueryListPatterns(ctx, &ws, "success_count", "desc", 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "SELECT 1 FROM a", page2[0].Query)

	asc, _, err := client.QueryListPatterns(ctx, &ws, "success_count", "asc", 3, 0)
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, "SELECT 1 FROM a", asc[0].Query, "ascending order starts at the lowest count")
}

func TestValidSortColumn(t *testing.T) {
	assert.True(t, db.ValidSortColumn("last_used"))
	assert.True(t, db.ValidSortColumn("success_count"))
	assert.True(t, db.ValidSortColumn("execution_time"))
	assert.True(t, db.ValidSortColumn("created_at"))
	assert.False(t, db.ValidSortColumn("query; DROP TABLE pattern"))
	assert.False(t, db.ValidSortColumn(""))
}

func TestQueryPatternsWithEmbeddings(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("candidates")

	withEmb := "SELECT a FROM t1"
	withoutEmb := "SELECT b FROM t2"
	_, err := client.QueryUpsertPattern(ctx, models.PatternID(withEmb), withEmb, ws, testEmbedding(), 10.0, 1, nil)
	require.NoError(t, err)
	_, err = client.QueryUpsertPattern(ctx, models.PatternID(withoutEmb), withoutEmb, ws, nil, 10.0, 1, nil)
	require.NoError(t, err)

	candidates, err := client.QueryPatternsWithEmbeddings(ctx, &ws)
	require.NoError(t, err)
	require.Len(t, candidates, 1, "patterns without embeddings are not candidates")
	assert.Equal(t, withEmb, candidates[0].Query)
	assert.NotEmpty(t, candidates[0].Embedding)
}

func TestQueryUpdatePattern(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("update")

	query := "SELECT x FROM y"
	id := models.PatternID(query)
	_, err := client.QueryUpsertPattern(ctx, id, query, ws, testEmbedding(), 10.0, 1, nil)
	require.NoError(t, err)

	schemaCtx := "CREATE TABLE y (x int)"
	rec, err := client.QueryUpdatePattern(ctx, id, map[string]any{
		"result_count":   99,
		"schema_context": schemaCtx,
	})
	require.NoError(t, err)
	assert.Equal(t, 99, rec.ResultCount)
	require.NotNil(t, rec.SchemaContext)
	assert.Equal(t, schemaCtx, *rec.SchemaContext)

	_, err = client.QueryUpdatePattern(ctx, models.PatternID("no such query"), map[string]any{"result_count": 1})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestQueryAdjustConfidence(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("adjust")

	query := "SELECT z FROM w"
	id := models.PatternID(query)
	for i := 0; i < 5; i++ {
		_, err := client.QueryUpsertPattern(ctx, id, query, ws, testEmbedding(), 10.0, 1, nil)
		require.NoError(t, err)
	}

	// +0.3 confidence maps to +3 success count
	rec, err := client.QueryAdjustConfidence(ctx, id, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, rec.SuccessCount)

	// Large negative adjustment clamps at 1, never 0 or below
	rec, err = client.QueryAdjustConfidence(ctx, id, -100)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.SuccessCount)

	_, err = client.QueryAdjustConfidence(ctx, models.PatternID("absent"), 1)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestQueryDeletePattern(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("delete")

	query := "SELECT d FROM e"
	id := models.PatternID(query)
	_, err := client.QueryUpsertPattern(ctx, id, query, ws, nil, 10.0, 1, nil)
	require.NoError(t, err)

	require.NoError(t, client.QueryDeletePattern(ctx, id))

	rec, err := client.QueryGetPattern(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, rec, "pattern gone after delete")

	err = client.QueryDeletePattern(ctx, id)
	assert.ErrorIs(t, err, db.ErrNotFound, "second delete reports not found")
}

func TestQueryBulkDeleteByIDs(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("bulk_ids")

	var ids []string
	for i := 0; i < 3; i++ {
		q := fmt.Sprintf("SELECT %d FROM bulk", i)
		id := models.PatternID(q)
		_, err := client.QueryUpsertPattern(ctx, id, q, ws, nil, 10.0, 1, nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	otherWS := uniqueWorkspace("bulk_ids_other")
	// IDs take precedence: the workspace criterion must be ignored
	deleted, err := client.QueryBulkDelete(ctx, ids[:2], &otherWS, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	rec, err := client.QueryGetPattern(ctx, ids[2])
	require.NoError(t, err)
	assert.NotNil(t, rec, "unlisted pattern survives")
}

func TestQueryBulkDeleteByWorkspace(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("bulk_ws")
	keep := uniqueWorkspace("bulk_ws_keep")

	for i, wsName := range []string{ws, ws, keep} {
		q := fmt.Sprintf("SELECT %d FROM wsbulk", i)
		_, err := client.QueryUpsertPattern(ctx, models.PatternID(q), q, wsName, nil, 10.0, 1, nil)
		require.NoError(t, err)
	}

	deleted, err := client.QueryBulkDelete(ctx, nil, &ws, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	candidates, _, err := client.QueryListPatterns(ctx, &keep, "last_used", "desc", 10, 0)
	require.NoError(t, err)
	assert.Len(t, candidates, 1, "other workspace untouched")
}

func TestQueryBulkDeleteOlderThan(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("bulk_age")
	otherWS := uniqueWorkspace("bulk_age_other")

	old := "SELECT old FROM history"
	fresh := "SELECT fresh FROM history"
	oldElsewhere := "SELECT old FROM other_history"

	// Importing an old snapshot sets created_at 60 days back while
	// last_used refreshes to now, so recent use must not save the row.
	oldRec := models.PatternRecord{
		ID: models.PatternID(old), Query: old, WorkspaceID: ws,
		SuccessCount: 2, ExecutionTimeMs: 10,
		CreatedAt: time.Now().AddDate(0, 0, -60),
	}
	_, err := client.QueryImportPattern(ctx, oldRec, ws)
	require.NoError(t, err)

	elsewhereRec := oldRec
	elsewhereRec.ID = models.PatternID(oldElsewhere)
	elsewhereRec.Query = oldElsewhere
	_, err = client.QueryImportPattern(ctx, elsewhereRec, otherWS)
	require.NoError(t, err)

	_, err = client.QueryUpsertPattern(ctx, models.PatternID(fresh), fresh, ws, nil, 10.0, 1, nil)
	require.NoError(t, err)

	// Workspace selects all of ws; age additionally removes old rows
	// in any workspace.
	days := 30
	deleted, err := client.QueryBulkDelete(ctx, nil, &ws, &days)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	rec, err := client.QueryGetPattern(ctx, models.PatternID(oldElsewhere))
	require.NoError(t, err)
	assert.Nil(t, rec, "stale row outside the workspace goes too")
}

func TestQueryBulkDeleteAgeAlone(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("bulk_age_only")

	old := "SELECT one FROM ancient"
	fresh := "SELECT two FROM ancient"
	oldRec := models.PatternRecord{
		ID: models.PatternID(old), Query: old, WorkspaceID: ws,
		SuccessCount: 1, ExecutionTimeMs: 5,
		CreatedAt: time.Now().AddDate(0, 0, -45),
	}
	_, err := client.QueryImportPattern(ctx, oldRec, ws)
	require.NoError(t, err)
	_, err = client.QueryUpsertPattern(ctx, models.PatternID(fresh), fresh, ws, nil, 10.0, 1, nil)
	require.NoError(t, err)

	days := 30
	deleted, err := client.QueryBulkDelete(ctx, nil, nil, &days)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, 1, "at least the stale row goes")

	rec, err := client.QueryGetPattern(ctx, models.PatternID(fresh))
	require.NoError(t, err)
	assert.NotNil(t, rec, "recently created row survives")
	gone, err := client.QueryGetPattern(ctx, models.PatternID(old))
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestQueryBulkDeleteNoCriteria(t *testing.T) {
	client, ctx := testClient(t)

	deleted, err := client.QueryBulkDelete(ctx, nil, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted, "no criteria deletes nothing")
}

func TestQueryStats(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("stats")

	top := "SELECT top FROM leaders"
	other := "SELECT other FROM laggards"
	for i := 0; i < 3; i++ {
		_, err := client.QueryUpsertPattern(ctx, models.PatternID(top), top, ws, nil, 100.0, 1, nil)
		require.NoError(t, err)
	}
	_, err := client.QueryUpsertPattern(ctx, models.PatternID(other), other, ws, nil, 50.0, 1, nil)
	require.NoError(t, err)

	stats, err := client.QueryStats(ctx, &ws)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalQueries)
	assert.Greater(t, stats.AvgExecutionTimeMs, 0.0)
	require.NotNil(t, stats.MostSuccessful)
	assert.Equal(t, top, stats.MostSuccessful.Query)
	assert.Equal(t, 3, stats.MostSuccessful.SuccessCount)
	assert.Equal(t, 2, stats.RecentActivity, "both patterns used within 7 days")
}

func TestQueryStatsEmptyWorkspace(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("stats_empty")

	stats, err := client.QueryStats(ctx, &ws)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalQueries)
	assert.Nil(t, stats.MostSuccessful)
	assert.Zero(t, stats.RecentActivity)
}

func TestQueryStatsTruncatesLongQuery(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("stats_trunc")

	long := "SELECT " + fmt.Sprintf("%0200d", 1) + " FROM wide_table"
	_, err := client.QueryUpsertPattern(ctx, models.PatternID(long), long, ws, nil, 10.0, 1, nil)
	require.NoError(t, err)

	stats, err := client.QueryStats(ctx, &ws)
	require.NoError(t, err)
	require.NotNil(t, stats.MostSuccessful)
	assert.Len(t, stats.MostSuccessful.Query, 103, "100 chars plus ellipsis")
}

func TestQueryExportPatterns(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("export")

	query := "SELECT e FROM exports"
	_, err := client.QueryUpsertPattern(ctx, models.PatternID(query), query, ws, testEmbedding(), 10.0, 1, nil)
	require.NoError(t, err)

	recs, err := client.QueryExportPatterns(ctx, &ws)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].Embedding, "export omits embeddings")
	assert.Equal(t, query, recs[0].Query)
}

func TestQueryImportPattern(t *testing.T) {
	client, ctx := testClient(t)
	ws := uniqueWorkspace("import")
	target := uniqueWorkspace("import_target")

	query := "SELECT p FROM imports"
	created := time.Now().AddDate(0, 0, -10).Truncate(time.Second).UTC()
	rec := models.PatternRecord{
		ID: models.PatternID(query), Query: query, WorkspaceID: ws,
		SuccessCount: 7, ExecutionTimeMs: 33.5, ResultCount: 4,
		CreatedAt: created, LastUsedAt: created,
	}

	stored, err := client.QueryImportPattern(ctx, rec, target)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.SuccessCount, "counters preserved verbatim")
	assert.Equal(t, target, stored.WorkspaceID, "snapshot workspace replaced by the target")
	assert.Equal(t, created.Unix(), stored.CreatedAt.Unix())
	assert.True(t, stored.LastUsedAt.After(created), "last_used refreshes on import")

	// Importing the same record again keeps the row's creation time.
	rec.CreatedAt = time.Now()
	rec.SuccessCount = 11
	again, err := client.QueryImportPattern(ctx, rec, target)
	require.NoError(t, err)
	assert.Equal(t, 11, again.SuccessCount)
	assert.Equal(t, created.Unix(), again.CreatedAt.Unix(), "existing created_at wins on overwrite")
}
