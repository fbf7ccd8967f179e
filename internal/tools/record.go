package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/l0l1/l0l1-go/internal/config"
	"github.com/l0l1/l0l1-go/internal/models"
	"github.com/l0l1/l0l1-go/internal/store"
)

// RecordQueryInput defines the input schema for the record_query tool.
type RecordQueryInput struct {
	Query           string  `json:"query" jsonschema:"required,The SQL query that executed successfully"`
	Workspace       string  `json:"workspace,omitempty" jsonschema:"Workspace to scope the pattern to"`
	ExecutionTimeMs float64 `json:"execution_time_ms,omitempty" jsonschema:"Query execution time in milliseconds"`
	ResultCount     int     `json:"result_count,omitempty" jsonschema:"Number of rows the query returned"`
	SchemaContext   string  `json:"schema_context,omitempty" jsonschema:"Schema DDL or description the query ran against"`
}

type recordQueryResult struct {
	Recorded  bool   `json:"recorded"`
	PatternID string `json:"pattern_id,omitempty"`
	Workspace string `json:"workspace,omitempty"`
}

// NewRecordQueryHandler creates the record_query tool handler.
func NewRecordQueryHandler(deps *Dependencies, cfg *config.Config) mcp.ToolHandlerFor[RecordQueryInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RecordQueryInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Query == "" {
			return ErrorResult("Query cannot be empty", "Provide the SQL query that succeeded"), nil, nil
		}

		workspace := ResolveWorkspace(cfg, input.Workspace)
		if workspace == "" {
			return ErrorResult("No workspace resolved", "Pass a workspace or set L0L1_DEFAULT_WORKSPACE"), nil, nil
		}

		record := store.RecordInput{
			Query:           input.Query,
			WorkspaceID:     workspace,
			ExecutionTimeMs: input.ExecutionTimeMs,
			ResultCount:     input.ResultCount,
		}
		if input.SchemaContext != "" {
			record.SchemaContext = &input.SchemaContext
		}

		recorded, err := deps.Learning.RecordSuccessfulQuery(ctx, record)
		if err != nil {
			deps.Logger.Error("record query failed", "error", err)
			return ErrorResult("Failed to record query", "Check store connectivity"), nil, nil
		}

		result := recordQueryResult{Recorded: recorded}
		if recorded {
			result.PatternID = models.PatternID(input.Query)
			result.Workspace = workspace
		}
		return JSONResult(result), nil, nil
	}
}
