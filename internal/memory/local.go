package memory

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	_ "modernc.org/sqlite"
)

// LocalStore implements Store on an embedded sqlite database, for
// deployments without a Qdrant server. Embeddings are stored as BLOBs
// (little-endian float32 arrays) and cosine similarity is computed in Go,
// which is fast enough at the collection sizes a local gateway sees.
type LocalStore struct {
	db *sql.DB
}

const localSchema = `
CREATE TABLE IF NOT EXISTS collections (
	name        TEXT PRIMARY KEY,
	vector_name TEXT NOT NULL,
	vector_size INTEGER NOT NULL,
	distance    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS points (
	collection     TEXT NOT NULL,
	id             TEXT NOT NULL,
	vector         BLOB NOT NULL,
	payload        TEXT NOT NULL,
	published_date INTEGER,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_points_published
	ON points (collection, published_date);
`

// NewLocalStore opens (creating if needed) the sqlite database at path.
func NewLocalStore(path string) (*LocalStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local store %q: %w", path, err)
	}
	if _, err := db.Exec(localSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init local store schema: %w", err)
	}
	return &LocalStore{db: db}, nil
}

// Close releases the database handle.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// CollectionExists reports whether the named collection exists.
func (s *LocalStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM collections WHERE name = ?`, name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check collection %q: %w", name, err)
	}
	return true, nil
}

// CreateCollection registers the collection's vector config. Creating an
// existing collection is a no-op; the original config stays fixed.
func (s *LocalStore) CreateCollection(ctx context.Context, name string, params VectorParams) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, vector_name, vector_size, distance)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, params.Name, params.Size, string(params.Distance))
	if err != nil {
		return fmt.Errorf("create collection %q: %w", name, err)
	}
	return nil
}

// ListCollections returns all collection names in lexical order.
func (s *LocalStore) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Upsert writes points, replacing any with the same id. The payload
// published_date, when present and numeric, is extracted into its own
// column so range filters can run in SQL.
func (s *LocalStore) Upsert(ctx context.Context, collection string, points []Point) error {
	size, err := s.vectorSize(ctx, collection)
	if err != nil {
		return err
	}
	for _, p := range points {
		if len(p.Vector) != size {
			return fmt.Errorf("upsert into %q: vector size %d does not match collection size %d", collection, len(p.Vector), size)
		}
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload for point %q: %w", p.ID, err)
		}
		published := publishedColumn(p.Payload)
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO points (collection, id, vector, payload, published_date)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(collection, id) DO UPDATE SET
				vector = excluded.vector,
				payload = excluded.payload,
				published_date = excluded.published_date
		`, collection, p.ID, encodeFloat32s(p.Vector), string(payload), published)
		if err != nil {
			return fmt.Errorf("upsert point %q into %q: %w", p.ID, collection, err)
		}
	}
	return nil
}

// Query scans the collection, filters by published_date when requested and
// returns the top hits by cosine similarity. Points without a
// published_date are excluded by the range filter, matching the remote
// store's semantics for a missing payload field.
func (s *LocalStore) Query(ctx context.Context, collection string, query PointsQuery) ([]ScoredPoint, error) {
	q := `SELECT id, vector, payload FROM points WHERE collection = ?`
	args := []any{collection}
	if query.Filter != nil {
		q += ` AND published_date IS NOT NULL AND published_date >= ?`
		args = append(args, query.Filter.GTE)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query collection %q: %w", collection, err)
	}
	defer rows.Close()

	var hits []ScoredPoint
	for rows.Next() {
		var id, payloadJSON string
		var blob []byte
		if err := rows.Scan(&id, &blob, &payloadJSON); err != nil {
			return nil, err
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return nil, fmt.Errorf("decode payload for point %q: %w", id, err)
		}
		hits = append(hits, ScoredPoint{
			ID:      id,
			Score:   cosineSimilarity(query.Vector, decodeFloat32s(blob)),
			Payload: payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if query.Limit > 0 && len(hits) > query.Limit {
		hits = hits[:query.Limit]
	}
	return hits, nil
}

func (s *LocalStore) vectorSize(ctx context.Context, collection string) (int, error) {
	var size int
	err := s.db.QueryRowContext(ctx, `SELECT vector_size FROM collections WHERE name = ?`, collection).Scan(&size)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("collection %q does not exist", collection)
	}
	if err != nil {
		return 0, fmt.Errorf("read collection %q config: %w", collection, err)
	}
	return size, nil
}

func publishedColumn(payload map[string]any) any {
	if _, ok := payload[PublishedDateKey]; !ok {
		return nil
	}
	v := numericPayloadValue(payload[PublishedDateKey])
	if v == 0 {
		return nil
	}
	return v
}

func encodeFloat32s(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeFloat32s(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
