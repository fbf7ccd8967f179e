package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l0l1/l0l1-go/internal/models"
)

var (
	similarThreshold float64
	similarLimit     int
)

var similarCmd = &cobra.Command{
	Use:   "similar <query>",
	Short: "Find learned patterns similar to a query",
	Long: `Find stored SQL patterns whose embeddings are similar to the given
query.

Examples:
  l0l1 similar "SELECT * FROM users"
  l0l1 similar "find all orders" --threshold 0.6 --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	similarCmd.Flags().Float64Var(&similarThreshold, "threshold", 0, "minimum similarity score (default: server setting)")
	similarCmd.Flags().IntVarP(&similarLimit, "limit", "n", 10, "max results")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	matches, err := apiClient.Similar(ctx, args[0], resolveWorkspace(), similarThreshold, similarLimit)
	if err != nil {
		return fmt.Errorf("similarity search: %w", err)
	}

	if len(matches) == 0 {
		fmt.Println("No similar patterns found.")
		return nil
	}

	fmt.Printf("Similar patterns (%d):\n\n", len(matches))
	for _, m := range matches {
		fmt.Printf("- [%.2f] %s\n", m.Score, models.TruncateQuery(m.Pattern.Query, 80))
		if verbose {
			fmt.Printf("  id=%s success=%d confidence=%.2f last_used=%s\n",
				m.Pattern.ID, m.Pattern.SuccessCount, m.Pattern.Confidence,
				m.Pattern.LastUsedAt.Format("2006-01-02 15:04"))
		}
	}
	return nil
}
