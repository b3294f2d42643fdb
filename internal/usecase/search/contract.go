package search

import (
	"context"

	"github.com/kailas-cloud/varsearch/internal/domain/search/request"
	"github.com/kailas-cloud/varsearch/internal/domain/search/response"
)

// Searcher defines the transport contract for result pages.
type Searcher interface {
	Search(ctx context.Context, req request.Request) (response.Response, error)
}
