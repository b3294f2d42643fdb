package schema

import (
	"context"

	domschema "github.com/kailas-cloud/varsearch/internal/domain/schema"
)

// Fetcher defines the transport contract for the field catalog.
type Fetcher interface {
	GetSchema(ctx context.Context) (domschema.Schema, error)
}
