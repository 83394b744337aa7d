// Command compare-engine evaluates Comparison Memory rules against live
// point readings and commits the resulting digital outputs.
package main

import (
	"os"

	"github.com/sweeney/compare-engine/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
