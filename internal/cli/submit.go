package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var submitFile string

var submitCmd = &cobra.Command{
	Use:   "submit <session-id> <dealership-id>",
	Short: "Submit manual VIN entry for the awaiting dealership",
	Long: `Submit a manual-entry text block for the dealership currently awaiting
input. The block holds one VIN per line, optionally preceded by a short
order-number line. Reads from --file, or stdin when no file is given.

Examples:
  orderctl submit 3f2a... "Beta Auto" --file vins.txt
  cat vins.txt | orderctl submit 3f2a... "Beta Auto"`,
	Args: cobra.ExactArgs(2),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVarP(&submitFile, "file", "f", "", "read the entry block from a file instead of stdin")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	var text []byte
	var err error
	if submitFile != "" {
		text, err = os.ReadFile(submitFile)
		if err != nil {
			return fmt.Errorf("read entry file: %w", err)
		}
	} else {
		text, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	result, err := api.SubmitManual(context.Background(), args[0], args[1], string(text))
	if err != nil {
		return err
	}

	fmt.Printf("Accepted %d VINs for %q\n", result.VINCount, args[1])
	if result.OrderNumber != "" {
		fmt.Printf("  Order number: %s\n", result.OrderNumber)
	}
	for _, w := range result.Warnings {
		fmt.Printf("  Warning: %s\n", w)
	}
	return nil
}
