// Package main provides the entry point for the gitmetrics CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/gitmetrics/cmd/gitmetrics/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
