package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <session-id>",
	Short: "Cancel an in-flight session",
	Long: `Stop processing and discard the session's partial results. The
dealerships are not re-queued automatically. A completed session cannot
be cancelled.`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	status, err := api.Cancel(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Session %s cancelled\n", status.SessionID)
	return nil
}
