package tools_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l0l1/l0l1-go/internal/config"
	"github.com/l0l1/l0l1-go/internal/learning"
	"github.com/l0l1/l0l1-go/internal/models"
	"github.com/l0l1/l0l1-go/internal/store"
	"github.com/l0l1/l0l1-go/internal/tools"
)

// testLogger creates a logger for test visibility.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type stubModel struct{}

func (stubModel) CompleteSQL(_ context.Context, _, _ string, _ []string) (string, error) {
	return "SELECT id FROM users", nil
}

func (stubModel) CorrectSQL(_ context.Context, _, _, _ string) (string, error) {
	return "SELECT 1", nil
}

func (stubModel) ExplainSQL(_ context.Context, _, _ string) (string, error) {
	return "selects things", nil
}

func (stubModel) ValidateSQL(_ context.Context, _, _ string) (*models.ValidationReport, error) {
	return &models.ValidationReport{IsValid: true, Severity: "low"}, nil
}

func testDeps(t *testing.T) (*tools.Dependencies, *config.Config, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	svc := learning.NewService(learning.Config{
		Store:     mem,
		Embedder:  stubEmbedder{},
		Model:     stubModel{},
		Enabled:   true,
		Threshold: 0.8,
	})
	deps := &tools.Dependencies{Learning: svc, Logger: testLogger()}
	cfg := &config.Config{DefaultWorkspace: "test-ws"}
	return deps, cfg, mem
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content should be TextContent")
	return text.Text
}

func TestPingTool(t *testing.T) {
	deps, _, _ := testDeps(t)
	handler := tools.NewPingHandler(deps)

	result, _, err := handler(context.Background(), nil, tools.PingInput{})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "pong", textOf(t, result))

	result, _, err = handler(context.Background(), nil, tools.PingInput{Echo: "hello world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", textOf(t, result))
}

func TestRecordQueryTool(t *testing.T) {
	deps, cfg, mem := testDeps(t)
	handler := tools.NewRecordQueryHandler(deps, cfg)

	result, _, err := handler(context.Background(), nil, tools.RecordQueryInput{
		Query:           "SELECT * FROM users",
		ExecutionTimeMs: 12,
		ResultCount:     3,
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out struct {
		Recorded  bool   `json:"recorded"`
		PatternID string `json:"pattern_id"`
		Workspace string `json:"workspace"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &out))
	assert.True(t, out.Recorded)
	assert.Equal(t, models.PatternID("SELECT * FROM users"), out.PatternID)
	assert.Equal(t, "test-ws", out.Workspace, "default workspace should apply")

	stored, err := mem.Get(context.Background(), out.PatternID)
	require.NoError(t, err)
	assert.Equal(t, "test-ws", stored.WorkspaceID)
}

func TestRecordQueryToolValidation(t *testing.T) {
	deps, cfg, _ := testDeps(t)
	handler := tools.NewRecordQueryHandler(deps, cfg)

	result, _, err := handler(context.Background(), nil, tools.RecordQueryInput{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestFindSimilarTool(t *testing.T) {
	deps, cfg, mem := testDeps(t)

	_, err := mem.Upsert(context.Background(), store.RecordInput{
		Query:       "SELECT * FROM users",
		WorkspaceID: "test-ws",
		Embedding:   []float32{1, 0, 0},
	})
	require.NoError(t, err)

	handler := tools.NewFindSimilarHandler(deps, cfg)
	result, _, err := handler(context.Background(), nil, tools.FindSimilarInput{
		Query:     "find users",
		Threshold: 0.5,
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out struct {
		Matches []struct {
			Pattern models.PatternSummary `json:"pattern"`
			Score   float64               `json:"score"`
		} `json:"matches"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "SELECT * FROM users", out.Matches[0].Pattern.Query)
	assert.InDelta(t, 1.0, out.Matches[0].Score, 1e-9)
}

func TestFindSimilarToolLimitValidation(t *testing.T) {
	deps, cfg, _ := testDeps(t)
	handler := tools.NewFindSimilarHandler(deps, cfg)

	result, _, err := handler(context.Background(), nil, tools.FindSimilarInput{
		Query: "SELECT 1",
		Limit: 500,
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSuggestCompletionsTool(t *testing.T) {
	deps, cfg, _ := testDeps(t)
	handler := tools.NewSuggestCompletionsHandler(deps, cfg)

	result, _, err := handler(context.Background(), nil, tools.SuggestCompletionsInput{
		PartialQuery: "SELECT",
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &out))
	assert.Contains(t, out.Suggestions, "SELECT id FROM users")
}

func TestImproveQueryTool(t *testing.T) {
	deps, cfg, _ := testDeps(t)
	handler := tools.NewImproveQueryHandler(deps, cfg)

	result, _, err := handler(context.Background(), nil, tools.ImproveQueryInput{
		Query:        "SELEC 1",
		ErrorMessage: "syntax error",
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var improvement models.Improvement
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &improvement))
	assert.Equal(t, "SELECT 1", improvement.ImprovedQuery)
}

func TestPatternStatsTool(t *testing.T) {
	deps, cfg, mem := testDeps(t)

	_, err := mem.Upsert(context.Background(), store.RecordInput{
		Query:       "SELECT 1",
		WorkspaceID: "test-ws",
	})
	require.NoError(t, err)

	handler := tools.NewPatternStatsHandler(deps, cfg)
	result, _, err := handler(context.Background(), nil, tools.PatternStatsInput{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var stats models.LearningStats
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &stats))
	assert.Equal(t, 1, stats.TotalQueries)
}

func TestToolRegistration(t *testing.T) {
	deps, cfg, _ := testDeps(t)

	server := mcp.NewServer(&mcp.Implementation{Name: "test-l0l1", Version: "0.0.1-test"}, nil)
	tools.RegisterAll(server, deps, cfg)
}
