package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

const defaultOllamaModel = "bge-m3"

// Known embedding dimensions for common Ollama models. Models not listed here
// fall back to the bge-m3 dimensionality.
var ollamaModelDims = map[string]int{
	"bge-m3":            1024,
	"mxbai-embed-large": 1024,
	"nomic-embed-text":  768,
	"all-minilm":        384,
}

// OllamaProvider generates embeddings through a local or remote Ollama server.
// It stores vectors under the "default" named vector space.
type OllamaProvider struct {
	client *ollama.Client
	model  string
	dim    int
}

// NewOllamaProvider creates an Ollama-backed embedder. baseURL falls back to
// OLLAMA_BASE_URL and then to the standard local endpoint.
func NewOllamaProvider(model, baseURL string) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url: %w", err)
	}
	if model == "" {
		model = defaultOllamaModel
	}
	dim, ok := ollamaModelDims[model]
	if !ok {
		dim = ollamaModelDims[defaultOllamaModel]
	}
	httpClient := &http.Client{Timeout: 120 * time.Second}
	return &OllamaProvider{
		client: ollama.NewClient(u, httpClient),
		model:  model,
		dim:    dim,
	}, nil
}

func (p *OllamaProvider) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	res, err := p.client.Embed(ctx, &ollama.EmbedRequest{
		Model: p.model,
		Input: inputs,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if res == nil {
		return nil, fmt.Errorf("ollama embed: empty response")
	}
	if len(res.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("ollama embed: expected %d embeddings, got %d", len(inputs), len(res.Embeddings))
	}
	return res.Embeddings, nil
}

// EmbedDocuments embeds a batch of documents in one request.
func (p *OllamaProvider) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	return p.embed(ctx, docs)
}

// EmbedQuery embeds a single query string.
func (p *OllamaProvider) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := p.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (p *OllamaProvider) VectorName() string { return "default" }

func (p *OllamaProvider) VectorSize() int { return p.dim }
