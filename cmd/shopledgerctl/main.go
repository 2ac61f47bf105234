// Command shopledgerctl inspects and maintains the ledger from a terminal:
// monthly totals, workbook export and import, and the menu catalog.
package main

import (
	"fmt"
	"os"

	"shopledger/internal/cli"
	"shopledger/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)

	root := newRootCmd(newApp(logger))
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
