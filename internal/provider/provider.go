// Package provider implements the embedding backends used by the memory system.
package provider

import (
	"context"
)

// Embedder is the capability the memory connector consumes to turn text into
// vectors. Implementations must report a stable vector size for their
// lifetime; VectorName returns the named-vector label for multiplexed
// collections, or "" for the anonymous default vector space.
type Embedder interface {
	// EmbedDocuments embeds a batch of documents for storage.
	EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error)
	// EmbedQuery embeds a single search query.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
	// VectorName returns the named-vector label, "" for unnamed.
	VectorName() string
	// VectorSize returns the embedding dimensionality.
	VectorSize() int
}
