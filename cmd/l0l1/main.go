// Package main provides the entry point for the l0l1 CLI.
package main

import (
	"fmt"
	"os"

	"github.com/l0l1/l0l1-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
