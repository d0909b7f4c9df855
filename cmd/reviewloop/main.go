// Package main provides the entry point for the reviewloop CLI.
package main

import (
	"os"

	"github.com/forgepilot/reviewloop/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
