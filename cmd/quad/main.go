// Package main provides the entry point for the quad CLI.
package main

import (
	"os"

	"github.com/quadjournal/quad/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
