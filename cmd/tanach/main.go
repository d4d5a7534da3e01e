// Package main provides the entry point for the tanach CLI.
package main

import (
	"os"

	"github.com/noamulm-dev/Tanach100/cmd/tanach/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
