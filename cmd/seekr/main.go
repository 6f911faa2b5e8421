// Package main provides the entry point for the seekr CLI.
package main

import (
	"os"

	"github.com/brobert1/seekr-go/cmd/seekr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
