package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arturotrenard/mcp-server-qdrant/internal/config"
	"github.com/arturotrenard/mcp-server-qdrant/internal/memory"
	"github.com/arturotrenard/mcp-server-qdrant/internal/provider"
	"github.com/arturotrenard/mcp-server-qdrant/internal/qdrant"
	"github.com/arturotrenard/mcp-server-qdrant/internal/server"
)

var (
	serveTransport string
	serveSSEAddr   string
	serveDebug     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveTransport, "transport", "stdio", "MCP transport: stdio or sse")
	serveCmd.Flags().StringVar(&serveSSEAddr, "sse-addr", ":8000", "listen address for the sse transport")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "enable debug logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveTransport != "stdio" && serveTransport != "sse" {
		return fmt.Errorf("unknown transport %q (expected stdio or sse)", serveTransport)
	}
	setupLogging(serveDebug)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	connector, closer, err := buildConnector(cfg)
	if err != nil {
		return err
	}
	defer closer()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(connector, cfg, version)
	slog.Info("starting MCP server", "transport", serveTransport,
		"default_collection", cfg.Qdrant.CollectionName, "read_only", cfg.Qdrant.ReadOnly)

	switch serveTransport {
	case "stdio":
		err = srv.ServeStdio(ctx)
	case "sse":
		err = srv.ServeSSE(ctx, serveSSEAddr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildStore opens the embedded local store when QDRANT_LOCAL_PATH is set,
// otherwise a client to the remote Qdrant server. The returned closer
// releases the store.
func buildStore(cfg *config.Config) (memory.Store, func(), error) {
	if cfg.Qdrant.LocalPath != "" {
		local, err := memory.NewLocalStore(cfg.Qdrant.LocalPath)
		if err != nil {
			return nil, nil, err
		}
		return local, func() { local.Close() }, nil
	}
	client, err := qdrant.NewClient(cfg.Qdrant.URL, cfg.Qdrant.APIKey)
	if err != nil {
		return nil, nil, err
	}
	return client, func() {}, nil
}

// buildConnector wires the configured store and embedding backend into a
// connector. The returned closer releases backend resources.
func buildConnector(cfg *config.Config) (*memory.Connector, func(), error) {
	store, storeCloser, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := provider.NewEmbedder(cfg.Embedding)
	if err != nil {
		storeCloser()
		return nil, nil, fmt.Errorf("create embedding provider: %w", err)
	}
	closer := func() {
		if c, ok := embedder.(interface{ Close() error }); ok {
			c.Close()
		}
		storeCloser()
	}
	return memory.NewConnector(store, embedder, cfg.Qdrant.CollectionName), closer, nil
}

// setupLogging routes structured logs to stderr; stdout belongs to the
// stdio transport.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
