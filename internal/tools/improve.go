package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/l0l1/l0l1-go/internal/config"
)

// ImproveQueryInput defines the input schema for the improve_query tool.
type ImproveQueryInput struct {
	Query         string `json:"query" jsonschema:"required,The SQL query that failed or needs improvement"`
	ErrorMessage  string `json:"error_message,omitempty" jsonschema:"Error the database reported for the query"`
	Workspace     string `json:"workspace,omitempty" jsonschema:"Workspace whose patterns inform the correction"`
	SchemaContext string `json:"schema_context,omitempty" jsonschema:"Schema DDL or description for the target database"`
}

// NewImproveQueryHandler creates the improve_query tool handler.
func NewImproveQueryHandler(deps *Dependencies, cfg *config.Config) mcp.ToolHandlerFor[ImproveQueryInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ImproveQueryInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Query == "" {
			return ErrorResult("Query cannot be empty", "Provide the SQL query to improve"), nil, nil
		}

		workspace := ResolveWorkspace(cfg, input.Workspace)

		improvement, err := deps.Learning.ImproveQuery(ctx, input.Query, input.ErrorMessage, workspace, input.SchemaContext)
		if err != nil {
			deps.Logger.Error("improve query failed", "error", err)
			return ErrorResult("Failed to improve query", "Store may be unavailable"), nil, nil
		}

		return JSONResult(improvement), nil, nil
	}
}
