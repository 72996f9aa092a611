// Package cmd provides the CLI commands for the AgroPower server.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	dryRun  bool
	verbose bool
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "agropower",
	Short: "AgroPower - tractor power analysis and recommendation service",
	Long: `AgroPower computes tractive power losses, minimum power requirements
and ranked tractor recommendations for agricultural terrains.

All computations are persisted with a full audit trail unless --dry-run
is set.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false,
		"Compute without persisting: responses carry queryId 0 and no rows are written")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose logging output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Path to configuration file (default: config/default.yaml)")
}

// setupLogging configures structured JSON logging using slog.
func setupLogging() error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	if dryRun {
		slog.Info("dry-run mode enabled", "action", "database writes are disabled; reads still occur")
	}

	return nil
}

// IsDryRun returns whether dry-run mode is enabled.
func IsDryRun() bool {
	return dryRun
}
