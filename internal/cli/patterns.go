package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/l0l1/l0l1-go/internal/models"
	"github.com/l0l1/l0l1-go/internal/store"
)

var (
	patternsSortBy string
	patternsOrder  string
	patternsLimit  int
	patternsOffset int

	bulkDeleteIDs       []string
	bulkDeleteOlderThan int
	bulkDeleteWorkspace string
	bulkDeleteYes       bool
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect and manage stored patterns",
	Long: `Inspect and manage learned SQL patterns.

Subcommands:
  list         List patterns (default)
  get          Show one pattern by ID
  delete       Delete one pattern by ID
  adjust       Adjust a pattern's confidence
  bulk-delete  Delete patterns by IDs, workspace, or age

Examples:
  l0l1 patterns
  l0l1 patterns list --sort success_count
  l0l1 patterns get 3f2a...
  l0l1 patterns adjust 3f2a... -- -0.3
  l0l1 patterns bulk-delete --older-than 90 --yes`,
	RunE: runPatternsList,
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List patterns",
	RunE:  runPatternsList,
}

var patternsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one pattern by ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatternsGet,
}

var patternsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one pattern by ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatternsDelete,
}

var patternsAdjustCmd = &cobra.Command{
	Use:   "adjust <id> <adjustment>",
	Short: "Adjust a pattern's confidence by a value in [-1, 1]",
	Args:  cobra.ExactArgs(2),
	RunE:  runPatternsAdjust,
}

var patternsBulkDeleteCmd = &cobra.Command{
	Use:   "bulk-delete",
	Short: "Delete patterns by IDs, workspace, or age",
	Long: `Delete patterns in bulk. When --ids is given the workspace filter is
ignored. --older-than additionally deletes every pattern created more
than that many days ago, regardless of the other filters.`,
	RunE: runPatternsBulkDelete,
}

func init() {
	for _, c := range []*cobra.Command{patternsCmd, patternsListCmd} {
		c.Flags().StringVar(&patternsSortBy, "sort", "", "sort column: last_used, success_count, execution_time, created_at")
		c.Flags().StringVar(&patternsOrder, "order", "", "sort direction: asc or desc (default desc)")
		c.Flags().IntVarP(&patternsLimit, "limit", "n", 50, "max results")
		c.Flags().IntVar(&patternsOffset, "offset", 0, "pagination offset")
	}

	patternsBulkDeleteCmd.Flags().StringSliceVar(&bulkDeleteIDs, "ids", nil, "pattern IDs to delete")
	patternsBulkDeleteCmd.Flags().IntVar(&bulkDeleteOlderThan, "older-than", 0, "delete patterns created more than this many days ago")
	patternsBulkDeleteCmd.Flags().StringVar(&bulkDeleteWorkspace, "workspace-filter", "", "delete all patterns in this workspace")
	patternsBulkDeleteCmd.Flags().BoolVar(&bulkDeleteYes, "yes", false, "skip confirmation prompt")

	patternsCmd.AddCommand(patternsListCmd)
	patternsCmd.AddCommand(patternsGetCmd)
	patternsCmd.AddCommand(patternsDeleteCmd)
	patternsCmd.AddCommand(patternsAdjustCmd)
	patternsCmd.AddCommand(patternsBulkDeleteCmd)
}

func runPatternsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	page, err := apiClient.ListPatterns(ctx, resolveWorkspace(), patternsSortBy, patternsOrder, patternsLimit, patternsOffset)
	if err != nil {
		return fmt.Errorf("list patterns: %w", err)
	}

	if len(page.Patterns) == 0 {
		fmt.Println("No patterns found.")
		return nil
	}

	fmt.Printf("Patterns (%d of %d):\n\n", len(page.Patterns), page.Total)
	for _, p := range page.Patterns {
		fmt.Printf("- %s\n", models.TruncateQuery(p.Query, 80))
		fmt.Printf("  id=%s workspace=%s success=%d confidence=%.2f\n",
			models.TruncateQuery(p.ID, 12), p.WorkspaceID, p.SuccessCount, p.Confidence)
		if verbose {
			fmt.Printf("  avg_time=%.1fms rows=%d last_used=%s\n",
				p.ExecutionTimeMs, p.ResultCount, p.LastUsedAt.Format("2006-01-02 15:04"))
		}
	}
	return nil
}

func runPatternsGet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p, err := apiClient.GetPattern(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get pattern: %w", err)
	}

	fmt.Printf("Pattern: %s\n", p.ID)
	fmt.Printf("  Query: %s\n", p.Query)
	fmt.Printf("  Workspace: %s\n", p.WorkspaceID)
	fmt.Printf("  Success count: %d\n", p.SuccessCount)
	fmt.Printf("  Confidence: %.2f\n", p.Confidence)
	fmt.Printf("  Avg execution time: %.1fms\n", p.ExecutionTimeMs)
	fmt.Printf("  Result count: %d\n", p.ResultCount)
	if p.SchemaContext != nil {
		fmt.Printf("  Schema context: %s\n", models.TruncateQuery(*p.SchemaContext, 120))
	}
	fmt.Printf("  Created: %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Last used: %s\n", p.LastUsedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runPatternsDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := apiClient.DeletePattern(ctx, args[0]); err != nil {
		return fmt.Errorf("delete pattern: %w", err)
	}
	fmt.Println("Pattern deleted.")
	return nil
}

func runPatternsAdjust(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	adjustment, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("adjustment must be a number in [-1, 1]: %w", err)
	}

	p, err := apiClient.AdjustConfidence(ctx, args[0], adjustment)
	if err != nil {
		return fmt.Errorf("adjust confidence: %w", err)
	}

	fmt.Printf("Confidence now %.2f (success count %d)\n", p.Confidence, p.SuccessCount)
	return nil
}

func runPatternsBulkDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	criteria := store.BulkDeleteCriteria{IDs: bulkDeleteIDs}
	if bulkDeleteWorkspace != "" {
		criteria.WorkspaceID = &bulkDeleteWorkspace
	}
	if bulkDeleteOlderThan > 0 {
		criteria.OlderThanDays = &bulkDeleteOlderThan
	}

	if len(criteria.IDs) == 0 && criteria.WorkspaceID == nil && criteria.OlderThanDays == nil {
		return fmt.Errorf("no criteria given; use --ids, --workspace-filter, or --older-than")
	}

	if !bulkDeleteYes {
		fmt.Print("Delete matching patterns? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	deleted, err := apiClient.BulkDelete(ctx, criteria)
	if err != nil {
		return fmt.Errorf("bulk delete: %w", err)
	}

	fmt.Printf("Deleted %d patterns.\n", deleted)
	return nil
}
