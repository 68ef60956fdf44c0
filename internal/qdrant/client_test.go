package qdrant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arturotrenard/mcp-server-qdrant/internal/memory"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, "secret")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", ""); err == nil {
		t.Error("expected an error for an empty URL")
	}
	client, err := NewClient("http://localhost:6333/", "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.baseURL != "http://localhost:6333" {
		t.Errorf("baseURL = %q, trailing slash not trimmed", client.baseURL)
	}
}

func TestCollectionExists(t *testing.T) {
	var gotPath, gotAPIKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("api-key")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"result": map[string]any{"exists": true},
		})
	})

	exists, err := client.CollectionExists(context.Background(), "memories")
	if err != nil {
		t.Fatalf("CollectionExists: %v", err)
	}
	if !exists {
		t.Error("exists = false, want true")
	}
	if gotPath != "/collections/memories/exists" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAPIKey != "secret" {
		t.Errorf("api-key header = %q, want secret", gotAPIKey)
	}
}

func TestCreateCollectionNamedVector(t *testing.T) {
	var gotBody map[string]any
	var gotMethod string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody = decodeBody(t, r)
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "result": true})
	})

	err := client.CreateCollection(context.Background(), "memories", memory.VectorParams{
		Name: "fast-bge-small-en-v1.5", Size: 384, Distance: memory.DistanceCosine,
	})
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	vectors, ok := gotBody["vectors"].(map[string]any)
	if !ok {
		t.Fatalf("vectors = %T, want object", gotBody["vectors"])
	}
	named, ok := vectors["fast-bge-small-en-v1.5"].(map[string]any)
	if !ok {
		t.Fatalf("named vector config missing: %v", vectors)
	}
	if named["size"] != float64(384) || named["distance"] != "Cosine" {
		t.Errorf("vector config = %v", named)
	}
}

func TestCreateCollectionUnnamedVector(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "result": true})
	})

	err := client.CreateCollection(context.Background(), "memories", memory.VectorParams{
		Size: 1536, Distance: memory.DistanceCosine,
	})
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	vectors, ok := gotBody["vectors"].(map[string]any)
	if !ok {
		t.Fatalf("vectors = %T, want object", gotBody["vectors"])
	}
	if vectors["size"] != float64(1536) {
		t.Errorf("expected a flat single-vector config, got %v", vectors)
	}
}

func TestCreateCollectionAlreadyExists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[string]any{"error": "Collection `memories` already exists!"},
		})
	})

	err := client.CreateCollection(context.Background(), "memories", memory.VectorParams{
		Size: 4, Distance: memory.DistanceCosine,
	})
	if err != nil {
		t.Fatalf("duplicate create must be tolerated, got %v", err)
	}
}

func TestUpsert(t *testing.T) {
	var gotPath, gotQuery string
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotBody = decodeBody(t, r)
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "result": map[string]any{}})
	})

	err := client.Upsert(context.Background(), "memories", []memory.Point{
		{
			ID:         "0b8e4a41-2c1f-4dd0-9f6e-37a1b7a0f8b3",
			Vector:     []float32{0.1, 0.2},
			VectorName: "default",
			Payload:    map[string]any{"content": "hello"},
		},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if gotPath != "/collections/memories/points" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "wait=true" {
		t.Errorf("query = %q, want wait=true", gotQuery)
	}
	points := gotBody["points"].([]any)
	point := points[0].(map[string]any)
	vector, ok := point["vector"].(map[string]any)
	if !ok {
		t.Fatalf("vector = %T, want named vector object", point["vector"])
	}
	if _, ok := vector["default"]; !ok {
		t.Errorf("named vector key missing: %v", vector)
	}
	if payload := point["payload"].(map[string]any); payload["content"] != "hello" {
		t.Errorf("payload = %v", payload)
	}
}

func TestUpsertError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[string]any{"error": "Wrong input: vector size mismatch"},
		})
	})

	err := client.Upsert(context.Background(), "memories", []memory.Point{
		{ID: "x", Vector: []float32{1}, Payload: map[string]any{}},
	})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestQuery(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody = decodeBody(t, r)
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"result": map[string]any{
				"points": []map[string]any{
					{"id": "aa-1", "score": 0.93, "payload": map[string]any{"content": "first"}},
					{"id": 7, "score": 0.41, "payload": map[string]any{"content": "second"}},
				},
			},
		})
	})

	hits, err := client.Query(context.Background(), "memories", memory.PointsQuery{
		Vector: []float32{0.3, 0.4},
		Using:  "default",
		Filter: &memory.RangeFilter{Key: "published_date", GTE: 1700000000000},
		Limit:  5,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if gotPath != "/collections/memories/points/query" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["using"] != "default" {
		t.Errorf("using = %v", gotBody["using"])
	}
	if gotBody["with_payload"] != true {
		t.Error("with_payload not set")
	}
	filter := gotBody["filter"].(map[string]any)
	must := filter["must"].([]any)[0].(map[string]any)
	if must["key"] != "published_date" {
		t.Errorf("filter key = %v", must["key"])
	}
	rng := must["range"].(map[string]any)
	if rng["gte"] != float64(1700000000000) {
		t.Errorf("filter gte = %v", rng["gte"])
	}

	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].ID != "aa-1" || hits[0].Payload["content"] != "first" {
		t.Errorf("first hit = %+v", hits[0])
	}
	if hits[1].ID != "7" {
		t.Errorf("numeric id rendered as %q, want 7", hits[1].ID)
	}
}

func TestQueryOmitsOptionalFields(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"result": map[string]any{"points": []any{}},
		})
	})

	_, err := client.Query(context.Background(), "memories", memory.PointsQuery{
		Vector: []float32{1}, Limit: 3,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if _, ok := gotBody["using"]; ok {
		t.Error("using must be omitted for the unnamed vector space")
	}
	if _, ok := gotBody["filter"]; ok {
		t.Error("filter must be omitted when no range filter is set")
	}
}

func TestListCollections(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"result": map[string]any{
				"collections": []map[string]any{{"name": "a"}, {"name": "b"}},
			},
		})
	})

	names, err := client.ListCollections(context.Background())
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("names = %v", names)
	}
}
