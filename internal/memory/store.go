package memory

import "context"

// Distance is the metric a collection is created with.
type Distance string

// DistanceCosine is the only metric the connector ever configures.
const DistanceCosine Distance = "Cosine"

// VectorParams is the vector configuration of a collection, fixed at
// creation time. Name is "" for the anonymous default vector space.
type VectorParams struct {
	Name     string
	Size     int
	Distance Distance
}

// Point is one record to upsert: an id, the embedding and the full payload.
// VectorName selects the named vector space, "" for unnamed.
type Point struct {
	ID         string
	Vector     []float32
	VectorName string
	Payload    map[string]any
}

// ScoredPoint is one similarity search hit.
type ScoredPoint struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// RangeFilter restricts hits to payloads whose numeric Key field is >= GTE.
type RangeFilter struct {
	Key string
	GTE int64
}

// PointsQuery describes one similarity query.
type PointsQuery struct {
	Vector []float32
	Using  string // named vector to search, "" for unnamed
	Filter *RangeFilter
	Limit  int
}

// Store is the vector store capability the connector consumes. Implemented
// by the Qdrant REST client and by the embedded sqlite store.
type Store interface {
	// CollectionExists reports whether the named collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)
	// CreateCollection creates a collection with the given vector config.
	// Creating a collection that already exists is not an error.
	CreateCollection(ctx context.Context, name string, params VectorParams) error
	// ListCollections returns the names of all collections.
	ListCollections(ctx context.Context) ([]string, error)
	// Upsert writes points into a collection.
	Upsert(ctx context.Context, collection string, points []Point) error
	// Query runs a similarity search and returns hits in descending
	// relevance order with their full payloads.
	Query(ctx context.Context, collection string, query PointsQuery) ([]ScoredPoint, error)
}
