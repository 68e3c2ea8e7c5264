package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/Alijeyrad/simorq_availability/cmd/http"
	schedulecmd "github.com/Alijeyrad/simorq_availability/cmd/schedule"
	systemcmd "github.com/Alijeyrad/simorq_availability/cmd/system"
	"github.com/Alijeyrad/simorq_availability/pkg/logs"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "simorq-availability",
	Short: "Availability engine for Simorq professionals.",
	Long: `simorq-availability stores each professional's weekly schedule, breaks and
date exceptions, and turns them into bookable time slots for the booking pages.`,
}

func Execute() {
	// Replaced by the configured logger once a command has read its config.
	slog.SetDefault(logs.Default())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
	rootCmd.AddCommand(schedulecmd.NewScheduleCommand())
}
