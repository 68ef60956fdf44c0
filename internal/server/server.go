// Package server exposes the memory connector through the Model Context
// Protocol: qdrant-store, qdrant-find and qdrant-find-recent tools over the
// stdio or SSE transports.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/arturotrenard/mcp-server-qdrant/internal/config"
	"github.com/arturotrenard/mcp-server-qdrant/internal/memory"
)

// Name is the server name advertised during the MCP handshake.
const Name = "mcp-server-qdrant"

// Server is the MCP front door over the memory connector.
type Server struct {
	mcp       *mcpserver.MCPServer
	connector *memory.Connector
	cfg       *config.Config
}

// New builds an MCP server and registers the memory tools. The store tool is
// hidden in read-only mode; the collection_name argument is only advertised
// when no default collection is configured.
func New(connector *memory.Connector, cfg *config.Config, version string) *Server {
	s := &Server{
		mcp:       mcpserver.NewMCPServer(Name, version, mcpserver.WithToolCapabilities(false)),
		connector: connector,
		cfg:       cfg,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	hasDefault := s.cfg.Qdrant.CollectionName != ""

	findOpts := []mcp.ToolOption{
		mcp.WithDescription(s.cfg.Tools.FindDescription),
		mcp.WithString("query", mcp.Required(), mcp.Description("What to search for")),
	}
	if !hasDefault {
		findOpts = append(findOpts, mcp.WithString("collection_name", mcp.Required(),
			mcp.Description("The collection to search in")))
	}
	s.mcp.AddTool(mcp.NewTool("qdrant-find", findOpts...), s.handleFind)

	recentOpts := []mcp.ToolOption{
		mcp.WithDescription(s.cfg.Tools.FindRecentDescription),
		mcp.WithString("query", mcp.Required(), mcp.Description("What to search for")),
		mcp.WithNumber("days", mcp.Description("Only return memories from the last N days")),
		mcp.WithNumber("after_ts", mcp.Description("Only return memories published at or after this epoch-ms timestamp; wins over days")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results")),
	}
	if !hasDefault {
		recentOpts = append(recentOpts, mcp.WithString("collection_name",
			mcp.Description("The collection to search in")))
	}
	s.mcp.AddTool(mcp.NewTool("qdrant-find-recent", recentOpts...), s.handleFindRecent)

	if s.cfg.Qdrant.ReadOnly {
		return
	}
	storeOpts := []mcp.ToolOption{
		mcp.WithDescription(s.cfg.Tools.StoreDescription),
		mcp.WithString("information", mcp.Required(), mcp.Description("The information to remember")),
		mcp.WithObject("metadata", mcp.Description("Extra payload fields to store with the memory, e.g. published_date (epoch-ms), tags, source")),
	}
	if !hasDefault {
		storeOpts = append(storeOpts, mcp.WithString("collection_name", mcp.Required(),
			mcp.Description("The collection to store the information in")))
	}
	s.mcp.AddTool(mcp.NewTool("qdrant-store", storeOpts...), s.handleStore)
}

func (s *Server) collectionArg(req mcp.CallToolRequest) string {
	if name := req.GetString("collection_name", ""); name != "" {
		return name
	}
	return s.cfg.Qdrant.CollectionName
}

func (s *Server) handleStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	information, err := req.RequireString("information")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload := map[string]any{"content": information}
	if metadata, ok := req.GetArguments()["metadata"].(map[string]any); ok {
		for k, v := range metadata {
			if k == "content" {
				continue
			}
			payload[k] = v
		}
	}

	collection := s.collectionArg(req)
	if _, err := s.connector.Store(ctx, memory.Entry{Payload: payload}, collection); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store: %v", err)), nil
	}
	if collection != "" {
		return mcp.NewToolResultText(fmt.Sprintf("Remembered: %s in collection %s", information, collection)), nil
	}
	return mcp.NewToolResultText("Remembered: " + information), nil
}

func (s *Server) handleFind(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entries, err := s.connector.Search(ctx, query, s.collectionArg(req), s.cfg.Qdrant.SearchLimit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No information found for the query '%s'", query)), nil
	}

	content := []mcp.Content{
		mcp.NewTextContent(fmt.Sprintf("Results for the query '%s'", query)),
	}
	for _, entry := range entries {
		content = append(content, mcp.NewTextContent(formatEntry(entry)))
	}
	return &mcp.CallToolResult{Content: content}, nil
}

func (s *Server) handleFindRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	days := req.GetInt("days", 0)
	afterTS := int64(req.GetFloat("after_ts", 0))
	limit := req.GetInt("limit", s.cfg.Qdrant.SearchLimit)

	entries, err := s.connector.SearchRecent(ctx, query, s.collectionArg(req), limit, days, afterTS)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No recent information for '%s'", query)), nil
	}

	content := make([]mcp.Content, 0, len(entries))
	for _, entry := range entries {
		data, err := json.Marshal(entry.Payload)
		if err != nil {
			slog.Warn("skipping unserializable payload", "error", err)
			continue
		}
		content = append(content, mcp.NewTextContent(string(data)))
	}
	return &mcp.CallToolResult{Content: content}, nil
}

// ServeStdio runs the server over stdin/stdout until ctx is cancelled or
// the stream closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdio := mcpserver.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// ServeSSE runs the server over HTTP server-sent events on addr.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sse := mcpserver.NewSSEServer(s.mcp)
	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sse.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
