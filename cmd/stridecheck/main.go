// Package main is the entrypoint for the stridecheck CLI.
// The CLI provides commands for dataset validation, range specification
// management, and run reporting.
package main

import (
	"os"

	"github.com/stride-labs/stridecheck/internal/cli"
)

func main() {
	os.Exit(cli.New().Execute())
}
