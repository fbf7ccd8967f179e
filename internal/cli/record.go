package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l0l1/l0l1-go/internal/store"
)

var (
	recordTime   float64
	recordRows   int
	recordSchema string
)

var recordCmd = &cobra.Command{
	Use:   "record <query>",
	Short: "Record a successfully executed SQL query",
	Long: `Record a SQL query that executed successfully so it can inform
future suggestions. Recording the same query again reinforces the
stored pattern instead of duplicating it.

Examples:
  l0l1 record "SELECT * FROM users WHERE active = true"
  l0l1 record "SELECT count(*) FROM orders" --time 12.5 --rows 1
  l0l1 record "SELECT id FROM users" -w analytics`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().Float64Var(&recordTime, "time", 0, "execution time in milliseconds")
	recordCmd.Flags().IntVar(&recordRows, "rows", 0, "number of rows the query returned")
	recordCmd.Flags().StringVar(&recordSchema, "schema", "", "schema context the query ran against")
}

func runRecord(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	input := store.RecordInput{
		Query:           args[0],
		WorkspaceID:     resolveWorkspace(),
		ExecutionTimeMs: recordTime,
		ResultCount:     recordRows,
	}
	if recordSchema != "" {
		input.SchemaContext = &recordSchema
	}

	result, err := apiClient.Record(ctx, input)
	if err != nil {
		return fmt.Errorf("record query: %w", err)
	}

	if !result.Recorded {
		fmt.Println("Learning is disabled on the server; nothing recorded.")
		return nil
	}

	fmt.Printf("Recorded pattern %s\n", result.PatternID)
	if verbose {
		fmt.Printf("  Workspace: %s\n", input.WorkspaceID)
	}
	return nil
}
