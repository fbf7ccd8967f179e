package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/l0l1/l0l1-go/internal/config"
	"github.com/l0l1/l0l1-go/internal/models"
)

// FindSimilarInput defines the input schema for the find_similar tool.
type FindSimilarInput struct {
	Query     string  `json:"query" jsonschema:"required,The SQL query to find similar patterns for"`
	Workspace string  `json:"workspace,omitempty" jsonschema:"Workspace to search in"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"Minimum similarity score 0-1, default 0.8"`
	Limit     int     `json:"limit,omitempty" jsonschema:"Max results 1-50, default 10"`
}

type similarMatch struct {
	Pattern models.PatternSummary `json:"pattern"`
	Score   float64               `json:"score"`
}

type findSimilarResult struct {
	Matches []similarMatch `json:"matches"`
	Count   int            `json:"count"`
}

// NewFindSimilarHandler creates the find_similar tool handler.
func NewFindSimilarHandler(deps *Dependencies, cfg *config.Config) mcp.ToolHandlerFor[FindSimilarInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input FindSimilarInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Query == "" {
			return ErrorResult("Query cannot be empty", "Provide a SQL query"), nil, nil
		}

		limit := input.Limit
		if limit <= 0 {
			limit = 10
		}
		if limit > 50 {
			return ErrorResult("Limit must be 1-50", "Reduce limit value"), nil, nil
		}

		workspace := ResolveWorkspace(cfg, input.Workspace)

		matches, err := deps.Learning.SimilarQueries(ctx, input.Query, workspace, input.Threshold, limit)
		if err != nil {
			deps.Logger.Error("similarity search failed", "error", err)
			return ErrorResult("Similarity search failed", "Store may be unavailable"), nil, nil
		}

		result := findSimilarResult{Matches: make([]similarMatch, 0, len(matches)), Count: len(matches)}
		for _, m := range matches {
			result.Matches = append(result.Matches, similarMatch{Pattern: m.Pattern.Summary(), Score: m.Score})
		}

		queryLog := input.Query
		if len(queryLog) > 30 {
			queryLog = queryLog[:30] + "..."
		}
		deps.Logger.Info("similarity search completed", "query", queryLog, "results", len(matches))

		return JSONResult(result), nil, nil
	}
}
