package provider

import (
	"context"
	"fmt"
	"strings"

	fastembed "github.com/anush008/fastembed-go"
)

const defaultFastEmbedModel = "BAAI/bge-small-en-v1.5"

type fastEmbedModelInfo struct {
	model fastembed.EmbeddingModel
	dim   int
}

// Supported local ONNX models, keyed by their Hugging Face name.
var fastEmbedModels = map[string]fastEmbedModelInfo{
	"BAAI/bge-small-en-v1.5":                 {fastembed.BGESmallENV15, 384},
	"BAAI/bge-small-en":                      {fastembed.BGESmallEN, 384},
	"BAAI/bge-base-en-v1.5":                  {fastembed.BGEBaseENV15, 768},
	"BAAI/bge-base-en":                       {fastembed.BGEBaseEN, 768},
	"sentence-transformers/all-MiniLM-L6-v2": {fastembed.AllMiniLML6V2, 384},
	"intfloat/multilingual-e5-large":         {fastembed.MLE5Large, 1024},
}

// FastEmbedProvider generates embeddings locally with ONNX models, without
// calling out to any network service. The vector name is derived from the
// model name so collections written by different models never share a space.
type FastEmbedProvider struct {
	flag       *fastembed.FlagEmbedding
	modelName  string
	vectorName string
	dim        int
}

// NewFastEmbedProvider creates a local fastembed-backed embedder. The model
// is downloaded into cacheDir on first use.
func NewFastEmbedProvider(model, cacheDir string) (*FastEmbedProvider, error) {
	if model == "" {
		model = defaultFastEmbedModel
	}
	info, ok := fastEmbedModels[model]
	if !ok {
		return nil, fmt.Errorf("unsupported fastembed model %q", model)
	}
	flag, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:    info.model,
		CacheDir: cacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("init fastembed model %q: %w", model, err)
	}
	return &FastEmbedProvider{
		flag:       flag,
		modelName:  model,
		vectorName: fastEmbedVectorName(model),
		dim:        info.dim,
	}, nil
}

// fastEmbedVectorName derives the named-vector label from the model name,
// e.g. "BAAI/bge-small-en-v1.5" -> "fast-bge-small-en-v1.5".
func fastEmbedVectorName(model string) string {
	parts := strings.Split(model, "/")
	return "fast-" + strings.ToLower(parts[len(parts)-1])
}

// EmbedDocuments embeds a batch of passages.
func (p *FastEmbedProvider) EmbedDocuments(_ context.Context, docs []string) ([][]float32, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	vecs, err := p.flag.PassageEmbed(docs, 32)
	if err != nil {
		return nil, fmt.Errorf("fastembed passage embed: %w", err)
	}
	return vecs, nil
}

// EmbedQuery embeds a single query string.
func (p *FastEmbedProvider) EmbedQuery(_ context.Context, query string) ([]float32, error) {
	vec, err := p.flag.QueryEmbed(query)
	if err != nil {
		return nil, fmt.Errorf("fastembed query embed: %w", err)
	}
	return vec, nil
}

func (p *FastEmbedProvider) VectorName() string { return p.vectorName }

func (p *FastEmbedProvider) VectorSize() int { return p.dim }

// Close releases the underlying ONNX session.
func (p *FastEmbedProvider) Close() error {
	if p.flag != nil {
		p.flag.Destroy()
	}
	return nil
}
