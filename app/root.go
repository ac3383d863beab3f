// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "emolog",
	Short: "emolog is the backend of the unit emotion-diary platform",
	Long: `emolog is the backend of the unit emotion-diary platform.
It serves the RBAC-protected JSON API for diaries, dashboards, units,
support content and work notes, and runs the scheduled maintenance jobs.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
