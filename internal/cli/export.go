package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export patterns to a JSON file",
	Long: `Export learned patterns to a JSON file for backup or migration.
Embeddings are not included; they are regenerated on demand after
import.

Examples:
  l0l1 export ./patterns.json
  l0l1 export ./analytics.json -w analytics`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	patterns, err := apiClient.Export(ctx, resolveWorkspace())
	if err != nil {
		return fmt.Errorf("export patterns: %w", err)
	}

	if len(patterns) == 0 {
		fmt.Println("No patterns to export.")
		return nil
	}

	payload, err := json.MarshalIndent(patterns, "", "  ")
	if err != nil {
		return fmt.Errorf("encode patterns: %w", err)
	}

	if err := os.WriteFile(args[0], payload, 0644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}

	fmt.Printf("Exported %d patterns to %s\n", len(patterns), args[0])
	return nil
}
