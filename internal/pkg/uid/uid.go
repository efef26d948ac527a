// Package uid provides id generators used across the service.
package uid

import "github.com/google/uuid"

// StringID generates string identifiers such as correlation ids.
type StringID interface {
	Generate() string
}

// NumberID generates sortable numeric identifiers for persisted records.
type NumberID interface {
	Generate() int64
}

// UUID mints time-ordered version 7 UUIDs, so correlation ids and dead letter
// object names sort by creation time.
type UUID struct{}

func NewUUID() UUID { return UUID{} }

// Generate falls back to a random version 4 UUID if the v7 clock read fails.
func (UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
