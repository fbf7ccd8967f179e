package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var suggestSchema string

var suggestCmd = &cobra.Command{
	Use:   "suggest <partial-query>",
	Short: "Suggest completions for a partial SQL query",
	Long: `Suggest completions for a partial SQL query, combining the AI model
with learned patterns from the workspace.

Examples:
  l0l1 suggest "SELECT * FROM"
  l0l1 suggest "SELECT count(*)" --schema "CREATE TABLE orders (id int, total float)"`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().StringVar(&suggestSchema, "schema", "", "schema context for the target database")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	suggestions, err := apiClient.Suggest(ctx, args[0], resolveWorkspace(), suggestSchema)
	if err != nil {
		return fmt.Errorf("suggest completions: %w", err)
	}

	if len(suggestions) == 0 {
		fmt.Println("No suggestions available.")
		return nil
	}

	for i, s := range suggestions {
		fmt.Printf("%d. %s\n", i+1, s)
	}
	return nil
}
