// Package main is the entry point for the guidesync application.
package main

import (
	"os"

	"github.com/guidesync/guidesync/cmd/guidesync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
