// Package main provides the entry point for the filesentry CLI.
package main

import (
	"os"

	"github.com/filesentry/filesentry/cmd/filesentry/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
