package http

import "github.com/spf13/cobra"

// NewHTTPCommand groups the commands that serve the availability API.
func NewHTTPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the schedule and availability API",
		Long: `Commands for the HTTP API that stores professionals' schedules and
answers availability queries under /api/v1.`,
	}

	cmd.AddCommand(NewStartCommand())

	return cmd
}
