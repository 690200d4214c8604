// Command statemigrate upgrades a persisted wallet state file to the latest
// schema version and inspects the result.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
