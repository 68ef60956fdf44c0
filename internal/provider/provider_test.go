package provider

import (
	"testing"

	"github.com/arturotrenard/mcp-server-qdrant/internal/config"
)

func TestNewEmbedderUnknownProvider(t *testing.T) {
	_, err := NewEmbedder(config.EmbeddingConfig{Provider: "word2vec"})
	if err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}

func TestNewEmbedderOpenAIRequiresKey(t *testing.T) {
	_, err := NewEmbedder(config.EmbeddingConfig{Provider: "openai"})
	if err == nil {
		t.Fatal("expected an error without an API key")
	}
}

func TestOllamaProviderDefaults(t *testing.T) {
	p, err := NewOllamaProvider("", "http://localhost:11434")
	if err != nil {
		t.Fatalf("NewOllamaProvider: %v", err)
	}
	if p.VectorName() != "default" {
		t.Errorf("VectorName = %q, want default", p.VectorName())
	}
	if p.VectorSize() != 1024 {
		t.Errorf("VectorSize = %d, want 1024 for bge-m3", p.VectorSize())
	}
}

func TestOllamaProviderKnownModelDims(t *testing.T) {
	tests := []struct {
		model string
		dim   int
	}{
		{"bge-m3", 1024},
		{"nomic-embed-text", 768},
		{"all-minilm", 384},
		{"some-unknown-model", 1024},
	}
	for _, tt := range tests {
		p, err := NewOllamaProvider(tt.model, "http://localhost:11434")
		if err != nil {
			t.Fatalf("NewOllamaProvider(%q): %v", tt.model, err)
		}
		if p.VectorSize() != tt.dim {
			t.Errorf("VectorSize(%q) = %d, want %d", tt.model, p.VectorSize(), tt.dim)
		}
	}
}

func TestOpenAIProviderDefaults(t *testing.T) {
	p, err := NewOpenAIProvider("sk-test", "", "")
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	if p.VectorName() != "" {
		t.Errorf("VectorName = %q, want unnamed", p.VectorName())
	}
	if p.VectorSize() != 1536 {
		t.Errorf("VectorSize = %d, want 1536", p.VectorSize())
	}
}

func TestFastEmbedVectorName(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"BAAI/bge-small-en-v1.5", "fast-bge-small-en-v1.5"},
		{"sentence-transformers/all-MiniLM-L6-v2", "fast-all-minilm-l6-v2"},
		{"standalone-model", "fast-standalone-model"},
	}
	for _, tt := range tests {
		if got := fastEmbedVectorName(tt.model); got != tt.want {
			t.Errorf("fastEmbedVectorName(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestFastEmbedUnsupportedModel(t *testing.T) {
	if _, err := NewFastEmbedProvider("made-up/model", ""); err == nil {
		t.Fatal("expected an error for an unsupported model")
	}
}
