package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a processing session from the current queue",
	Long: `Drain the queue into a new session and start processing. Automated
dealerships run first; manual and hybrid dealerships then wait for
manual entry, one at a time.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	status, err := api.StartSession(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Session %s started, %d dealerships\n", status.SessionID, status.Totals.TotalItems)
	return nil
}
