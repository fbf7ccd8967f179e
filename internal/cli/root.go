// Package cli provides the command-line interface for l0l1.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l0l1/l0l1-go/internal/client"
	"github.com/l0l1/l0l1-go/internal/config"
	"github.com/l0l1/l0l1-go/internal/tools"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string
	workspace string

	// Global config and API client
	cfg       config.Config
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "l0l1",
	Short: "SQL authoring assistant with continuous learning",
	Long: `l0l1 is a SQL authoring assistant that learns from the queries you
run successfully. Recorded patterns power completion suggestions,
similarity search and query correction, scoped per workspace.

All commands talk to a running l0l1-server (see L0L1_SERVER_URL).`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip client setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		endpoint := serverURL
		if endpoint == "" {
			endpoint = cfg.ServerURL
		}
		apiClient = client.New(endpoint)
		return nil
	},
}

// resolveWorkspace applies the workspace resolution order:
// --workspace flag > configured default > git origin > cwd basename.
func resolveWorkspace() string {
	return tools.ResolveWorkspace(&cfg, workspace)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "l0l1 server URL (default from L0L1_SERVER_URL)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace to scope patterns to")

	// Add subcommands
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(improveCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(eventsCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
