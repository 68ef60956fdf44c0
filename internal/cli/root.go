// Package cli implements the command-line interface of the memory gateway.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// version can be overridden at build time via:
// go build -ldflags "-X github.com/arturotrenard/mcp-server-qdrant/internal/cli.version=1.2.3"
var version = "0.7.1"

var rootCmd = &cobra.Command{
	Use:   "mcp-server-qdrant",
	Short: "MCP semantic-memory server backed by Qdrant",
	Long: color.CyanString("mcp-server-qdrant") + " is a Model Context Protocol server that lets " +
		"agents store and retrieve free-text memories in a Qdrant vector database.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("mcp-server-qdrant " + version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(collectionsCmd)
}
