// Package cli implements the compare-engine CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "compare-engine",
	Short: "Comparison Memory evaluation engine",
	Long: "Evaluates Comparison Memory rules against live point readings: " +
		"N-out-of-M voting with hysteresis, group combination, duration " +
		"debounce, and committed digital outputs.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
}
