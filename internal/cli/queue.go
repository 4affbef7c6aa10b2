package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List the pending work queue",
	Args:  cobra.NoArgs,
	RunE:  runQueue,
}

func init() {
	rootCmd.AddCommand(queueCmd)
}

func runQueue(cmd *cobra.Command, args []string) error {
	items, err := api.ListQueue(context.Background())
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Println("Queue is empty")
		return nil
	}

	fmt.Printf("%-30s %-10s %s\n", "DEALERSHIP", "MODE", "ADDED BY")
	fmt.Println("--------------------------------------------------------")
	for _, item := range items {
		fmt.Printf("%-30s %-10s %s\n", item.DealershipID, item.Mode, item.AddedBy)
	}
	return nil
}
