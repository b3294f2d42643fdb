package export

import (
	"context"

	domexport "github.com/kailas-cloud/varsearch/internal/domain/export"
	"github.com/kailas-cloud/varsearch/internal/domain/search/request"
)

// Exporter defines the transport contract for binary exports.
type Exporter interface {
	Export(ctx context.Context, req request.Export) (domexport.Download, error)
}
