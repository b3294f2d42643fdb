package search

import (
	"github.com/kailas-cloud/varsearch/internal/domain/search/request"
	"github.com/kailas-cloud/varsearch/internal/domain/search/response"
)

// Status is the engine's position in its state machine.
type Status int

// Engine states.
const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is what a renderer sees. Response is the last successful page and
// survives a later failure; Err is set only in StatusError.
type State struct {
	Status     Status
	Request    request.Request
	Response   response.Response
	HasResult  bool
	IsFetching bool
	Err        error
}

// Data returns the visible records.
func (s State) Data() []response.Record { return s.Response.Data() }

// Total returns the visible match count.
func (s State) Total() int { return s.Response.Total() }

// Facets returns the visible facet counts.
func (s State) Facets() map[string][]response.FacetBucket { return s.Response.Facets() }
