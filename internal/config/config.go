// Package config provides configuration types and loading for the memory gateway.
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Default tool descriptions, overridable through the TOOL_* variables so
// operators can steer how an agent decides to call each tool.
const (
	defaultStoreDescription = "Keep the memory for later use, when you are asked to remember something."
	defaultFindDescription  = "Look up memories in Qdrant. Use this tool when you need to:\n" +
		" - Find memories by their content\n" +
		" - Access memories for further analysis\n" +
		" - Get some personal information about the user"
	defaultFindRecentDescription = "Look up memories that match the query and were published after " +
		"`after_ts` (epoch-ms) or within the last `days` days. Returns newest first with full payload."
)

// Config is the root configuration struct.
// Top-level groups: Qdrant, Embedding, Tools.
type Config struct {
	Qdrant    QdrantConfig
	Embedding EmbeddingConfig
	Tools     ToolsConfig
}

// QdrantConfig groups vector store connection settings.
type QdrantConfig struct {
	URL            string `envconfig:"QDRANT_URL"`
	APIKey         string `envconfig:"QDRANT_API_KEY"`
	CollectionName string `envconfig:"COLLECTION_NAME"`
	LocalPath      string `envconfig:"QDRANT_LOCAL_PATH"`
	SearchLimit    int    `envconfig:"QDRANT_SEARCH_LIMIT" default:"10"`
	ReadOnly       bool   `envconfig:"QDRANT_READ_ONLY"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	Provider          string `envconfig:"EMBEDDING_PROVIDER" default:"fastembed"`
	Model             string `envconfig:"EMBEDDING_MODEL"`
	OllamaBaseURL     string `envconfig:"OLLAMA_BASE_URL"`
	OpenAIAPIKey      string `envconfig:"OPENAI_API_KEY"`
	OpenAIAPIBase     string `envconfig:"OPENAI_API_BASE"`
	FastEmbedCacheDir string `envconfig:"FASTEMBED_CACHE_DIR"`
}

// ToolsConfig carries the descriptions advertised for each MCP tool.
type ToolsConfig struct {
	StoreDescription      string `envconfig:"TOOL_STORE_DESCRIPTION"`
	FindDescription       string `envconfig:"TOOL_FIND_DESCRIPTION"`
	FindRecentDescription string `envconfig:"TOOL_FIND_RECENT_DESCRIPTION"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Tools.StoreDescription == "" {
		c.Tools.StoreDescription = defaultStoreDescription
	}
	if c.Tools.FindDescription == "" {
		c.Tools.FindDescription = defaultFindDescription
	}
	if c.Tools.FindRecentDescription == "" {
		c.Tools.FindRecentDescription = defaultFindRecentDescription
	}
	c.Qdrant.URL = strings.TrimRight(strings.TrimSpace(c.Qdrant.URL), "/")
}

// Validate checks for invalid setting combinations.
func (c *Config) Validate() error {
	if c.Qdrant.URL == "" && c.Qdrant.LocalPath == "" {
		return fmt.Errorf("either QDRANT_URL or QDRANT_LOCAL_PATH must be set")
	}
	if c.Qdrant.URL != "" && c.Qdrant.LocalPath != "" {
		return fmt.Errorf("QDRANT_URL and QDRANT_LOCAL_PATH are mutually exclusive")
	}
	if c.Qdrant.SearchLimit <= 0 {
		return fmt.Errorf("QDRANT_SEARCH_LIMIT must be positive, got %d", c.Qdrant.SearchLimit)
	}
	if strings.TrimSpace(c.Embedding.Provider) == "" {
		return fmt.Errorf("EMBEDDING_PROVIDER cannot be empty")
	}
	return nil
}
