package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/l0l1/l0l1-go/internal/config"
)

// SuggestCompletionsInput defines the input schema for the
// suggest_completions tool.
type SuggestCompletionsInput struct {
	PartialQuery  string `json:"partial_query" jsonschema:"required,The partial SQL query to complete"`
	Workspace     string `json:"workspace,omitempty" jsonschema:"Workspace whose patterns inform suggestions"`
	SchemaContext string `json:"schema_context,omitempty" jsonschema:"Schema DDL or description for the target database"`
}

type suggestResult struct {
	Suggestions []string `json:"suggestions"`
}

// NewSuggestCompletionsHandler creates the suggest_completions tool handler.
func NewSuggestCompletionsHandler(deps *Dependencies, cfg *config.Config) mcp.ToolHandlerFor[SuggestCompletionsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SuggestCompletionsInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.PartialQuery == "" {
			return ErrorResult("Partial query cannot be empty", "Provide the query fragment to complete"), nil, nil
		}

		workspace := ResolveWorkspace(cfg, input.Workspace)

		suggestions, err := deps.Learning.Suggestions(ctx, input.PartialQuery, workspace, input.SchemaContext)
		if err != nil {
			deps.Logger.Error("suggestions failed", "error", err)
			return ErrorResult("Failed to generate suggestions", "Store may be unavailable"), nil, nil
		}

		return JSONResult(suggestResult{Suggestions: suggestions}), nil, nil
	}
}
