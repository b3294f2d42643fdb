package savedfilter

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/varsearch/internal/domain/search/request"
)

// MaxNameLength bounds a preset name.
const MaxNameLength = 120

// SavedFilter is a named, persisted snapshot of a search request.
type SavedFilter struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Payload   request.Request `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// New creates a SavedFilter. The name is trimmed and must be non-empty.
func New(id, name string, payload request.Request, createdAt time.Time) (SavedFilter, error) {
	if id == "" {
		return SavedFilter{}, fmt.Errorf("saved filter id is required")
	}
	name, err := NormalizeName(name)
	if err != nil {
		return SavedFilter{}, err
	}
	return SavedFilter{ID: id, Name: name, Payload: payload, CreatedAt: createdAt.UTC()}, nil
}

// NormalizeName trims and validates a preset name.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("saved filter name is required")
	}
	if len(name) > MaxNameLength {
		return "", fmt.Errorf("saved filter name too long (max %d)", MaxNameLength)
	}
	return name, nil
}

// Clone returns a copy that shares no mutable state with s.
func (s SavedFilter) Clone() SavedFilter {
	s.Payload = request.Reconstruct(s.Payload.Query(), s.Payload.Filters(), s.Payload.Limit())
	return s
}
