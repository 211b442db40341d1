package core

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is an immutable envelope around a payload conforming to a schema.
// A chunk validates itself against its schema at construction time; reuse
// of the same chunk across multiple fan-out targets is expected and safe
// because chunks are never mutated after construction.
type Chunk struct {
	ID        string
	Payload   any
	Schema    Schema
	Timestamp time.Time
}

// NewChunk validates payload against schema and, if it validates,
// constructs an immutable chunk carrying it.
func NewChunk(payload any, schema Schema) (*Chunk, error) {
	if err := schema.Validate(payload); err != nil {
		return nil, &ValidationError{Message: err.Error(), Cause: err}
	}
	return &Chunk{
		ID:        uuid.NewString(),
		Payload:   payload,
		Schema:    schema,
		Timestamp: time.Now(),
	}, nil
}
