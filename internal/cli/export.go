package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportOut  string
	exportSave bool
)

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export the session's merged records as CSV",
	Long: `Fetch the session's merged vehicle records as CSV. Writes to stdout
unless --out is given. With --save the artifact is also pushed to the
artifact store and its reference printed.

Examples:
  orderctl export 3f2a... > records.csv
  orderctl export 3f2a... --out records.csv --save`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write CSV to a file instead of stdout")
	exportCmd.Flags().BoolVar(&exportSave, "save", false, "also push the artifact to the artifact store")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	text, err := api.GetArtifact(ctx, args[0])
	if err != nil {
		return err
	}

	if exportOut != "" {
		if err := os.WriteFile(exportOut, []byte(text), 0644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		fmt.Printf("Wrote %s\n", exportOut)
	} else {
		fmt.Print(text)
	}

	if exportSave {
		ref, err := api.SaveArtifact(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved artifact %s\n", ref)
	}
	return nil
}
