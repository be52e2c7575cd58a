// Package main provides the entry point for the MorpheusAI CLI.
package main

import (
	"fmt"
	"os"

	"github.com/shubharthaksangharsha/morpheusAI/cmd/morpheus/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
