// Package main provides the entry point for the maar CLI.
package main

import (
	"os"

	"github.com/abdobzx/maar/cmd/maar/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
