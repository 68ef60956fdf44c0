// Package qdrant is a thin REST client for the Qdrant collection, point and
// query APIs, covering only what the memory connector needs.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arturotrenard/mcp-server-qdrant/internal/memory"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 4 << 20
)

// Client talks to a Qdrant server over its REST API. It implements
// memory.Store.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a Qdrant REST client. apiKey may be "" for unsecured
// deployments.
func NewClient(baseURL, apiKey string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("qdrant base URL is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("bad qdrant base URL: %w", err)
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultTimeout},
	}, nil
}

// envelope is the common Qdrant response wrapper. Status is "ok" on success
// or {"error": "..."} on failure depending on the server version.
type envelope struct {
	Status json.RawMessage `json:"status"`
	Result json.RawMessage `json:"result"`
}

func (e *envelope) errorMessage() string {
	if len(e.Status) == 0 || e.Status[0] == '"' {
		return ""
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(e.Status, &obj); err != nil {
		return ""
	}
	return obj.Error
}

func (c *Client) do(ctx context.Context, method, path string, body any) (int, *envelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		// Both headers are honored depending on the deployment.
		req.Header.Set("api-key", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("qdrant request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read qdrant response: %w", err)
	}
	env := &envelope{}
	if len(data) > 0 {
		// Best-effort parse; some endpoints return empty bodies.
		_ = json.Unmarshal(data, env)
	}
	return resp.StatusCode, env, nil
}

// CollectionExists reports whether the collection exists.
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	status, env, err := c.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(name)+"/exists", nil)
	if err != nil {
		return false, err
	}
	if status == http.StatusNotFound {
		return false, nil
	}
	if status != http.StatusOK {
		return false, c.apiError("collection exists", name, status, env)
	}
	var result struct {
		Exists bool `json:"exists"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return false, fmt.Errorf("parse exists response for %q: %w", name, err)
	}
	return result.Exists, nil
}

// CreateCollection creates the collection with a single or named vector
// config. A collection that already exists is treated as success, so
// concurrent first writers cannot fail each other.
func (c *Client) CreateCollection(ctx context.Context, name string, params memory.VectorParams) error {
	vector := map[string]any{
		"size":     params.Size,
		"distance": string(params.Distance),
	}
	var vectors any = vector
	if params.Name != "" {
		vectors = map[string]any{params.Name: vector}
	}
	body := map[string]any{"vectors": vectors}

	status, env, err := c.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(name), body)
	if err != nil {
		return err
	}
	if status >= 200 && status < 300 {
		return nil
	}
	if msg := env.errorMessage(); strings.Contains(strings.ToLower(msg), "already exists") {
		return nil
	}
	if status == http.StatusConflict {
		return nil
	}
	return c.apiError("create collection", name, status, env)
}

// ListCollections returns all collection names.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	status, env, err := c.do(ctx, http.MethodGet, "/collections", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.apiError("list collections", "", status, env)
	}
	var result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, fmt.Errorf("parse collections response: %w", err)
	}
	names := make([]string, 0, len(result.Collections))
	for _, col := range result.Collections {
		names = append(names, col.Name)
	}
	return names, nil
}

// Upsert writes points into the collection. wait=true makes the write
// visible to searches as soon as the call returns.
func (c *Client) Upsert(ctx context.Context, collection string, points []memory.Point) error {
	apiPoints := make([]map[string]any, 0, len(points))
	for _, p := range points {
		var vector any = p.Vector
		if p.VectorName != "" {
			vector = map[string]any{p.VectorName: p.Vector}
		}
		apiPoints = append(apiPoints, map[string]any{
			"id":      p.ID,
			"vector":  vector,
			"payload": p.Payload,
		})
	}
	body := map[string]any{"points": apiPoints}

	path := "/collections/" + url.PathEscape(collection) + "/points?wait=true"
	status, env, err := c.do(ctx, http.MethodPut, path, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return c.apiError("upsert points", collection, status, env)
	}
	return nil
}

// Query runs a similarity search through the points query API and returns
// hits in descending relevance order.
func (c *Client) Query(ctx context.Context, collection string, query memory.PointsQuery) ([]memory.ScoredPoint, error) {
	body := map[string]any{
		"query":        query.Vector,
		"limit":        query.Limit,
		"with_payload": true,
	}
	if query.Using != "" {
		body["using"] = query.Using
	}
	if query.Filter != nil {
		body["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key":   query.Filter.Key,
					"range": map[string]any{"gte": query.Filter.GTE},
				},
			},
		}
	}

	path := "/collections/" + url.PathEscape(collection) + "/points/query"
	status, env, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.apiError("query points", collection, status, env)
	}

	var result struct {
		Points []struct {
			ID      json.RawMessage `json:"id"`
			Score   float32         `json:"score"`
			Payload map[string]any  `json:"payload"`
		} `json:"points"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, fmt.Errorf("parse query response for %q: %w", collection, err)
	}
	hits := make([]memory.ScoredPoint, 0, len(result.Points))
	for _, p := range result.Points {
		hits = append(hits, memory.ScoredPoint{
			ID:      pointID(p.ID),
			Score:   p.Score,
			Payload: p.Payload,
		})
	}
	return hits, nil
}

// pointID renders a point id that may be a JSON string or number.
func pointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func (c *Client) apiError(op, collection string, status int, env *envelope) error {
	msg := env.errorMessage()
	if msg == "" {
		msg = http.StatusText(status)
	}
	if collection != "" {
		return fmt.Errorf("qdrant %s %q: http %d: %s", op, collection, status, msg)
	}
	return fmt.Errorf("qdrant %s: http %d: %s", op, status, msg)
}
