// Package main provides the entry point for the quartermaster CLI.
package main

import (
	"errors"
	"os"

	"github.com/gameforge/quartermaster/internal/domain/execution"
)

func main() {
	if err := Execute(); err != nil {
		printError(err)
		if errors.Is(err, execution.ErrAborted) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
