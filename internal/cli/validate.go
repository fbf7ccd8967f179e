package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var validateSchema string

var validateCmd = &cobra.Command{
	Use:   "validate <query>",
	Short: "Analyze a SQL query for potential issues",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "schema context for the target database")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	report, err := apiClient.Validate(ctx, args[0], validateSchema)
	if err != nil {
		return fmt.Errorf("validate query: %w", err)
	}

	if report.IsValid {
		fmt.Println("Query looks valid.")
	} else {
		fmt.Printf("Query has issues (severity: %s)\n", report.Severity)
	}

	if len(report.Issues) > 0 {
		fmt.Println("\nIssues:")
		for _, issue := range report.Issues {
			fmt.Printf("  - %s\n", issue)
		}
	}
	if len(report.Suggestions) > 0 {
		fmt.Println("\nSuggestions:")
		for _, s := range report.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}
	return nil
}
