package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l0l1/l0l1-go/internal/metrics"
	"github.com/l0l1/l0l1-go/internal/models"
)

var statsRuntime bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics for a workspace",
	Long: `Show aggregate learning statistics for the current workspace, or
server runtime statistics with --runtime.

Examples:
  l0l1 stats
  l0l1 stats -w analytics
  l0l1 stats --runtime`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsRuntime, "runtime", false, "show server runtime statistics instead")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if statsRuntime {
		snap, err := apiClient.RuntimeStats(ctx)
		if err != nil {
			return fmt.Errorf("runtime stats: %w", err)
		}
		printRuntimeStats(snap)
		return nil
	}

	ws := resolveWorkspace()
	stats, err := apiClient.Stats(ctx, ws)
	if err != nil {
		return fmt.Errorf("learning stats: %w", err)
	}
	printLearningStats(ws, stats)
	return nil
}

func printLearningStats(workspace string, stats *models.LearningStats) {
	fmt.Printf("Workspace: %s\n", workspace)
	fmt.Printf("  Patterns stored: %d\n", stats.TotalQueries)
	fmt.Printf("  Avg execution time: %.1fms\n", stats.AvgExecutionTimeMs)
	fmt.Printf("  Active in last 7 days: %d\n", stats.RecentActivity)
	if stats.MostSuccessful != nil {
		fmt.Printf("  Most successful (%dx): %s\n",
			stats.MostSuccessful.SuccessCount,
			models.TruncateQuery(stats.MostSuccessful.Query, 80))
	}
}

func printRuntimeStats(snap *metrics.Snapshot) {
	fmt.Printf("Uptime: %.0fs\n", snap.UptimeSeconds)

	ops := []struct {
		name string
		op   *metrics.OperationSnapshot
	}{
		{"embedding", snap.Embedding},
		{"llm_complete", snap.LLMComplete},
		{"llm_correct", snap.LLMCorrect},
		{"llm_validate", snap.LLMValidate},
		{"store_upsert", snap.StoreUpsert},
		{"store_search", snap.StoreSearch},
	}

	fmt.Printf("\n%-14s %-8s %-8s %-10s %-10s %s\n", "OPERATION", "COUNT", "ERRORS", "AVG", "MIN", "MAX")
	for _, o := range ops {
		if o.op == nil {
			continue
		}
		fmt.Printf("%-14s %-8d %-8d %-10s %-10s %s\n",
			o.name, o.op.Count, o.op.Errors,
			fmt.Sprintf("%.1fms", o.op.AvgTimeMs),
			fmt.Sprintf("%dms", o.op.MinTimeMs),
			fmt.Sprintf("%dms", o.op.MaxTimeMs))
	}
}
