// Package main is the loanprep command.
package main

import (
	"os"

	"github.com/leapstack-labs/loanprep/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
