// Package cli provides the orderctl command-line interface for the order
// processing server.
package cli

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"order-processing-backend/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string

	api *client.API
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "orderctl",
	Short: "Drive dealership order processing sessions",
	Long: `orderctl talks to the order processing server: enqueue dealerships,
start a session, submit manual VIN entry, review the merged records,
and finalize with an order number.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		api = client.NewAPI(serverURL)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default ORDERS_SERVER_URL or http://localhost:8080)")
}

// ExitCode maps an error to the process exit code: 2 for validation
// rejections, 3 for state conflicts, 4 for unknown sessions, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusBadRequest:
			return 2
		case http.StatusConflict:
			return 3
		case http.StatusNotFound:
			return 4
		}
	}
	return 1
}
