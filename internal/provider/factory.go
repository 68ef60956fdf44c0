package provider

import (
	"fmt"
	"strings"

	"github.com/arturotrenard/mcp-server-qdrant/internal/config"
)

// NewEmbedder creates the embedding backend selected by the configuration.
func NewEmbedder(cfg config.EmbeddingConfig) (Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "fastembed":
		return NewFastEmbedProvider(cfg.Model, cfg.FastEmbedCacheDir)
	case "ollama":
		return NewOllamaProvider(cfg.Model, cfg.OllamaBaseURL)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIAPIBase, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.Provider)
	}
}
