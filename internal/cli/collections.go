package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arturotrenard/mcp-server-qdrant/internal/config"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the collections in the configured vector store",
	RunE:  runCollections,
}

func runCollections(cmd *cobra.Command, args []string) error {
	setupLogging(false)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, closer, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer closer()

	names, err := store.ListCollections(cmd.Context())
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no collections")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
