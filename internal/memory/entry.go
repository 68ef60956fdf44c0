package memory

import "encoding/json"

// PublishedDateKey is the payload field the recency search filters and
// sorts on, as epoch-milliseconds.
const PublishedDateKey = "published_date"

// Entry is a single memory record: an open key-value payload with one
// required field, "content", holding the text the embedding is derived from.
type Entry struct {
	Payload map[string]any
}

// Content returns the payload "content" field, "" when missing or non-string.
func (e Entry) Content() string {
	s, _ := e.Payload["content"].(string)
	return s
}

// PublishedDate returns the payload published_date in epoch-ms, 0 when the
// field is missing or not numeric. JSON decoding and callers hand us several
// numeric shapes, so all of them are accepted.
func (e Entry) PublishedDate() int64 {
	return numericPayloadValue(e.Payload[PublishedDateKey])
}

func numericPayloadValue(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0
			}
			return int64(f)
		}
		return i
	default:
		return 0
	}
}
