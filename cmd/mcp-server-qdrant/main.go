// Package main is the entry point for the mcp-server-qdrant CLI.
package main

import (
	"os"

	"github.com/arturotrenard/mcp-server-qdrant/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
