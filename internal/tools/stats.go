package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/l0l1/l0l1-go/internal/config"
)

// PatternStatsInput defines the input schema for the pattern_stats tool.
type PatternStatsInput struct {
	Workspace string `json:"workspace,omitempty" jsonschema:"Workspace to aggregate, store-wide when omitted"`
}

// NewPatternStatsHandler creates the pattern_stats tool handler.
func NewPatternStatsHandler(deps *Dependencies, cfg *config.Config) mcp.ToolHandlerFor[PatternStatsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PatternStatsInput) (
		*mcp.CallToolResult, any, error,
	) {
		workspace := ResolveWorkspace(cfg, input.Workspace)

		stats, err := deps.Learning.Stats(ctx, workspace)
		if err != nil {
			deps.Logger.Error("stats failed", "error", err)
			return ErrorResult("Failed to load statistics", "Store may be unavailable"), nil, nil
		}

		return JSONResult(stats), nil, nil
	}
}
