package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show session stage and running totals",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	status, err := api.GetSession(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Session: %s\n", status.SessionID)
	fmt.Printf("  Stage: %s\n", status.Stage)
	if status.AwaitingManual != "" {
		fmt.Printf("  Awaiting manual entry: %s\n", status.AwaitingManual)
	}
	if status.OrderNumber != "" {
		fmt.Printf("  Order number: %s\n", status.OrderNumber)
	}

	t := status.Totals
	fmt.Printf("  Processed: %d/%d (%d succeeded, %d failed)\n",
		t.Processed, t.TotalItems, t.Succeeded, t.Failed)
	fmt.Printf("  Vehicles: %d\n", t.TotalVehicles)
	if len(t.Errors) > 0 {
		fmt.Printf("  Errors (%d):\n", len(t.Errors))
		for _, e := range t.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}
	return nil
}
