package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/l0l1/l0l1-go/internal/jobs"
	"github.com/l0l1/l0l1-go/internal/models"
)

var importOverwrite bool

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import patterns from a JSON export",
	Long: `Import patterns from a file produced by 'l0l1 export' into the
current workspace (see --workspace). The import runs as a background
job on the server; existing patterns are skipped unless --overwrite is
set.

Examples:
  l0l1 import ./patterns.json
  l0l1 import ./patterns.json --overwrite`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importOverwrite, "overwrite", false, "overwrite existing patterns")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	payload, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	var patterns []models.PatternRecord
	if err := json.Unmarshal(payload, &patterns); err != nil {
		return fmt.Errorf("parse import file: %w", err)
	}
	if len(patterns) == 0 {
		fmt.Println("Nothing to import.")
		return nil
	}

	jobID, err := apiClient.ImportAsync(ctx, patterns, resolveWorkspace(), importOverwrite)
	if err != nil {
		return fmt.Errorf("start import: %w", err)
	}

	// Interactive progress bar on a TTY, plain polling otherwise.
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return RunJobProgress(apiClient, jobID)
	}
	return pollImportJob(ctx, jobID)
}

// pollImportJob waits for the job without the interactive UI.
func pollImportJob(ctx context.Context, jobID string) error {
	fmt.Printf("Import job %s started...\n", jobID)

	for {
		time.Sleep(time.Second)

		snap, err := apiClient.GetJob(ctx, jobID)
		if err != nil {
			return fmt.Errorf("poll job: %w", err)
		}

		switch snap.Status {
		case jobs.StatusCompleted:
			printImportResult(snap.Result)
			return nil
		case jobs.StatusFailed:
			return fmt.Errorf("import failed: %s", snap.Error)
		}
	}
}

// printImportResult formats the import report carried in the job
// result. The result travels as JSON, so it arrives as a generic map.
func printImportResult(result any) {
	report, ok := result.(map[string]any)
	if !ok {
		fmt.Println("Import completed.")
		return
	}

	num := func(key string) int {
		if v, ok := report[key].(float64); ok {
			return int(v)
		}
		return 0
	}
	fmt.Printf("Import completed: %d imported, %d skipped (%d total)\n",
		num("imported"), num("skipped"), num("total"))
}
