// Package main is the entry point for the respack CLI.
package main

import (
	"os"

	"github.com/respack/respack/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
