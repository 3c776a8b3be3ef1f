// Package cmd provides the command-line interface for Bridgesim.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "bridgesim",
	Short: "Bridgesim CLI tool can inspect the wiring artifacts an " +
		"elaborated target build ships with.",
	Long: `Bridgesim CLI tool can inspect the wiring artifacts an ` +
		`elaborated target build ships with. Currently, it validates ` +
		`channel descriptors against a signal schema and lists the ` +
		`bridge-facing port surface.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
