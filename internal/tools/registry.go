package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/l0l1/l0l1-go/internal/config"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies, cfg *config.Config) {
	// Ping tool - test/placeholder
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Description: "Test tool - responds with pong or echoes input",
	}, NewPingHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "record_query",
		Description: "Record a successfully executed SQL query so it can inform future suggestions",
	}, NewRecordQueryHandler(deps, cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_similar",
		Description: "Find learned SQL patterns similar to a query using embedding similarity",
	}, NewFindSimilarHandler(deps, cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "suggest_completions",
		Description: "Suggest completions for a partial SQL query using the AI model and learned patterns",
	}, NewSuggestCompletionsHandler(deps, cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "improve_query",
		Description: "Correct or improve a failing SQL query using learned patterns and the AI model",
	}, NewImproveQueryHandler(deps, cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pattern_stats",
		Description: "Show learning statistics for a workspace or the whole store",
	}, NewPatternStatsHandler(deps, cfg))
}
