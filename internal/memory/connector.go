// Package memory implements the semantic-memory connector: it turns text
// into vectors, manages lazy per-collection schema creation and performs
// similarity search with optional time-range filtering and recency ordering.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/arturotrenard/mcp-server-qdrant/internal/provider"
)

// Connector orchestrates the embedding backend and the vector store to
// store and retrieve memory entries. It holds no mutable state after
// construction, so its methods are safe for concurrent use.
type Connector struct {
	store             Store
	embedder          provider.Embedder
	defaultCollection string
}

// NewConnector wires a connector to its store and embedding capabilities.
// defaultCollection may be "", in which case every call must name a
// collection explicitly.
func NewConnector(store Store, embedder provider.Embedder, defaultCollection string) *Connector {
	return &Connector{
		store:             store,
		embedder:          embedder,
		defaultCollection: defaultCollection,
	}
}

func (c *Connector) resolveCollection(collection string) (string, error) {
	if collection != "" {
		return collection, nil
	}
	if c.defaultCollection != "" {
		return c.defaultCollection, nil
	}
	return "", ErrNoCollection
}

// Store writes one entry into the collection, creating the collection on
// first use. The entry payload must contain a non-empty "content" field.
// Returns the generated point id. Repeated stores of identical content
// create distinct points.
func (c *Connector) Store(ctx context.Context, entry Entry, collection string) (string, error) {
	name, err := c.resolveCollection(collection)
	if err != nil {
		slog.Error("store rejected", "error", err)
		return "", err
	}
	if len(entry.Payload) == 0 || entry.Content() == "" {
		slog.Error("store rejected", "collection", name, "error", ErrInvalidEntry)
		return "", ErrInvalidEntry
	}
	slog.Debug("storing entry", "collection", name, "payload", payloadPreview(entry.Payload))

	if err := c.ensureCollection(ctx, name); err != nil {
		slog.Error("ensure collection failed", "collection", name, "error", err)
		return "", err
	}

	vecs, err := c.embedder.EmbedDocuments(ctx, []string{entry.Content()})
	if err != nil {
		slog.Error("embed entry failed", "collection", name, "error", err)
		return "", fmt.Errorf("embed entry content: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		slog.Error("embed entry failed", "collection", name, "error", ErrNoEmbedding)
		return "", ErrNoEmbedding
	}

	id := uuid.New().String()
	err = c.store.Upsert(ctx, name, []Point{{
		ID:         id,
		Vector:     vecs[0],
		VectorName: c.embedder.VectorName(),
		Payload:    entry.Payload,
	}})
	if err != nil {
		slog.Error("upsert failed", "collection", name, "payload", payloadPreview(entry.Payload), "error", err)
		return "", fmt.Errorf("upsert point: %w", err)
	}
	slog.Info("entry stored", "collection", name, "id", id)
	return id, nil
}

// ensureCollection lazily creates the collection with the backend-reported
// vector name/size and cosine distance. The check-then-create sequence is
// not serialized; concurrent first writers rely on the store treating a
// duplicate create as a no-op.
func (c *Connector) ensureCollection(ctx context.Context, name string) error {
	exists, err := c.store.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %q: %w", name, err)
	}
	if exists {
		return nil
	}
	params := VectorParams{
		Name:     c.embedder.VectorName(),
		Size:     c.embedder.VectorSize(),
		Distance: DistanceCosine,
	}
	if err := c.store.CreateCollection(ctx, name, params); err != nil {
		return fmt.Errorf("create collection %q: %w", name, err)
	}
	slog.Info("collection created", "collection", name, "vector_name", params.Name, "vector_size", params.Size)
	return nil
}

// Search embeds the query and returns up to limit entries in the store's
// similarity order. A collection that does not exist yields an empty,
// non-nil slice: "no memories yet" is not an error.
func (c *Connector) Search(ctx context.Context, query, collection string, limit int) ([]Entry, error) {
	return c.search(ctx, query, collection, limit, nil)
}

// SearchRecent is Search restricted to entries whose published_date is at or
// after the resolved time bound, re-sorted newest first. afterTS (epoch-ms)
// wins over days; with neither set the search is unfiltered. Entries without
// a published_date sort last.
func (c *Connector) SearchRecent(ctx context.Context, query, collection string, limit, days int, afterTS int64) ([]Entry, error) {
	if afterTS == 0 && days > 0 {
		afterTS = time.Now().UTC().AddDate(0, 0, -days).UnixMilli()
	}
	var filter *RangeFilter
	if afterTS > 0 {
		filter = &RangeFilter{Key: PublishedDateKey, GTE: afterTS}
	}
	entries, err := c.search(ctx, query, collection, limit, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PublishedDate() > entries[j].PublishedDate()
	})
	return entries, nil
}

func (c *Connector) search(ctx context.Context, query, collection string, limit int, filter *RangeFilter) ([]Entry, error) {
	name, err := c.resolveCollection(collection)
	if err != nil {
		return nil, err
	}
	exists, err := c.store.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check collection %q: %w", name, err)
	}
	if !exists {
		return []Entry{}, nil
	}

	vec, err := c.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := c.store.Query(ctx, name, PointsQuery{
		Vector: vec,
		Using:  c.embedder.VectorName(),
		Filter: filter,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query collection %q: %w", name, err)
	}
	entries := make([]Entry, 0, len(hits))
	for _, hit := range hits {
		entries = append(entries, Entry{Payload: hit.Payload})
	}
	return entries, nil
}

// CollectionNames lists all collections in the backing store.
func (c *Connector) CollectionNames(ctx context.Context) ([]string, error) {
	names, err := c.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return names, nil
}

// payloadPreview renders a truncated payload for log lines, keeping noisy
// payloads out of the logs.
func payloadPreview(payload map[string]any) string {
	b, err := json.Marshal(payload)
	if err != nil {
		return "<unserializable>"
	}
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
