package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	improveError  string
	improveSchema string
)

var improveCmd = &cobra.Command{
	Use:   "improve <query>",
	Short: "Correct or improve a failing SQL query",
	Long: `Correct a SQL query using learned patterns and the AI model.

Examples:
  l0l1 improve "SELEC * FROM users"
  l0l1 improve "SELECT * FORM users" --error "syntax error at or near FORM"`,
	Args: cobra.ExactArgs(1),
	RunE: runImprove,
}

func init() {
	improveCmd.Flags().StringVar(&improveError, "error", "", "error message the database reported")
	improveCmd.Flags().StringVar(&improveSchema, "schema", "", "schema context for the target database")
}

func runImprove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	improvement, err := apiClient.Improve(ctx, args[0], improveError, resolveWorkspace(), improveSchema)
	if err != nil {
		return fmt.Errorf("improve query: %w", err)
	}

	fmt.Println(improvement.ImprovedQuery)
	if verbose {
		fmt.Printf("\nConfidence: %.2f\n", improvement.Confidence)
		fmt.Printf("Learning applied: %v\n", improvement.LearningApplied)
		if len(improvement.Suggestions) > 0 {
			fmt.Println("Based on patterns:")
			for _, s := range improvement.Suggestions {
				fmt.Printf("  - %s\n", s)
			}
		}
	}
	return nil
}
