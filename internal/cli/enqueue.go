package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	enqueueMode    string
	enqueueAddedBy string
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <dealership-id>",
	Short: "Add a dealership to the work queue",
	Long: `Add a dealership to the work queue. Re-adding a dealership that is
already queued is a no-op.

Examples:
  orderctl enqueue "Alpha Motors" --mode AUTOMATED
  orderctl enqueue "Beta Auto" --mode HYBRID --added-by jane`,
	Args: cobra.ExactArgs(1),
	RunE: runEnqueue,
}

func init() {
	enqueueCmd.Flags().StringVar(&enqueueMode, "mode", "AUTOMATED", "processing mode: AUTOMATED, MANUAL or HYBRID")
	enqueueCmd.Flags().StringVar(&enqueueAddedBy, "added-by", "", "who requested the work")
	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	result, err := api.Enqueue(context.Background(), args[0], enqueueMode, enqueueAddedBy)
	if err != nil {
		return err
	}

	if result.Inserted {
		fmt.Printf("Enqueued %q (%s), queue size %d\n", args[0], enqueueMode, result.QueueSize)
	} else {
		fmt.Printf("%q already queued, queue size %d\n", args[0], result.QueueSize)
	}
	return nil
}
