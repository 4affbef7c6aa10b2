package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var finalizeCmd = &cobra.Command{
	Use:   "finalize <session-id> <order-number>",
	Short: "Finalize a session with an order number",
	Long: `Stamp the session with the given order number and complete it. The
session must be in review; the order number must be non-blank.`,
	Args: cobra.ExactArgs(2),
	RunE: runFinalize,
}

func init() {
	rootCmd.AddCommand(finalizeCmd)
}

func runFinalize(cmd *cobra.Command, args []string) error {
	status, err := api.Finalize(context.Background(), args[0], args[1])
	if err != nil {
		return err
	}

	t := status.Totals
	fmt.Printf("Session %s complete\n", status.SessionID)
	fmt.Printf("  Order number: %s\n", status.OrderNumber)
	fmt.Printf("  Processed: %d/%d (%d succeeded, %d failed), %d vehicles\n",
		t.Processed, t.TotalItems, t.Succeeded, t.Failed, t.TotalVehicles)
	return nil
}
