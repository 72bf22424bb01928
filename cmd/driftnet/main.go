// Package main provides the driftnet CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/driftnet/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
