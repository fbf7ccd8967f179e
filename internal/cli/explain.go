package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var explainSchema string

var explainCmd = &cobra.Command{
	Use:   "explain <query>",
	Short: "Explain a SQL query in plain language",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplain,
}

func init() {
	explainCmd.Flags().StringVar(&explainSchema, "schema", "", "schema context for the target database")
}

func runExplain(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	explanation, err := apiClient.Explain(ctx, args[0], explainSchema)
	if err != nil {
		return fmt.Errorf("explain query: %w", err)
	}

	fmt.Println(explanation)
	return nil
}
