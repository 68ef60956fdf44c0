package server

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arturotrenard/mcp-server-qdrant/internal/memory"
)

// formatEntry renders an entry payload as "key: value | key: value" with
// keys in lexical order so the output is deterministic.
func formatEntry(entry memory.Entry) string {
	keys := make([]string, 0, len(entry.Payload))
	for k := range entry.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, entry.Payload[k]))
	}
	return strings.Join(parts, " | ")
}
