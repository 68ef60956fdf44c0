package memory

import "errors"

var (
	// ErrNoCollection is returned when neither an explicit nor a default
	// collection name is available for an operation.
	ErrNoCollection = errors.New("no collection name provided and no default collection set")

	// ErrInvalidEntry is returned when a stored entry has an empty payload
	// or a missing/empty content field.
	ErrInvalidEntry = errors.New("entry payload must contain a non-empty content field")

	// ErrNoEmbedding is returned when the embedding backend produced no
	// vector for the entry content.
	ErrNoEmbedding = errors.New("embedding backend returned no vector")
)
