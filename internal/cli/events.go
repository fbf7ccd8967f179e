package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/l0l1/l0l1-go/internal/client"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Stream pattern lifecycle events from the server",
	Long: `Subscribe to the server's event feed and print pattern lifecycle
events as they happen. Runs until interrupted with Ctrl+C.`,
	RunE: runEvents,
}

func runEvents(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Listening for events (Ctrl+C to stop)...")

	err := apiClient.SubscribeEvents(ctx, func(event client.Event) error {
		ts := event.Timestamp.Format("15:04:05")
		switch event.Type {
		case "patterns_bulk_deleted", "patterns_imported":
			fmt.Printf("%s %-22s count=%d\n", ts, event.Type, event.Count)
		default:
			fmt.Printf("%s %-22s pattern=%s workspace=%s\n", ts, event.Type, event.PatternID, event.WorkspaceID)
		}
		return nil
	})

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
