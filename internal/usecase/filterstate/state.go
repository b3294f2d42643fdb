// Package filterstate holds the user's in-progress query and turns it into
// validated search and export requests.
package filterstate

import (
	"maps"
	"sort"
	"sync"

	domexport "github.com/kailas-cloud/varsearch/internal/domain/export"
	domschema "github.com/kailas-cloud/varsearch/internal/domain/schema"
	"github.com/kailas-cloud/varsearch/internal/domain/schema/field"
	"github.com/kailas-cloud/varsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/varsearch/internal/domain/search/request"
)

// Snapshot is a copy of the editable state.
type Snapshot struct {
	Query  string
	Values map[string]any
	Limit  int
}

// State is the mutable filter form. Writes never validate; validation
// happens when a request is built.
type State struct {
	limits request.Limits

	mu     sync.RWMutex
	query  string
	values map[string]any
	limit  int
}

// New creates an empty state with the page size set to limits.Default.
func New(limits request.Limits) *State {
	return &State{
		limits: limits,
		values: make(map[string]any),
		limit:  limits.Clamp(0),
	}
}

// SetQuery replaces the free-text query.
func (s *State) SetQuery(q string) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
}

// SetValue stores raw input for a field. nil removes the entry.
func (s *State) SetValue(name string, raw any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if raw == nil {
		delete(s.values, name)
		return
	}
	s.values[name] = raw
}

// SetLimit sets the page size. It is clamped when a request is built.
func (s *State) SetLimit(n int) {
	s.mu.Lock()
	s.limit = n
	s.mu.Unlock()
}

// Query returns the current free-text query.
func (s *State) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Limit returns the current page size after clamping.
func (s *State) Limit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limits.Clamp(s.limit)
}

// Snapshot returns a copy of the state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Query: s.query, Values: maps.Clone(s.values), Limit: s.limits.Clamp(s.limit)}
}

// RawActive returns the raw entries that are set (not nil and not "").
// Nothing is coerced; a value can be listed here and still be dropped or
// rejected by ActiveFilters.
func (s *State) RawActive() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		if !filter.IsBlank(v) {
			out[k] = v
		}
	}
	return out
}

// ActiveFilters coerces every raw entry against the schema and returns the
// ones that survive. Fields are visited in name order and the first invalid
// number aborts with a domain.ValidationError.
func (s *State) ActiveFilters(sch domschema.Schema) (map[string]filter.Value, error) {
	s.mu.RLock()
	values := maps.Clone(s.values)
	s.mu.RUnlock()
	return coerceAll(sch, values)
}

// ToRequest builds a search request from the current state.
// limit ≤ 0 uses the state's page size.
// Errors: domain.ErrInvalidNumber, domain.ErrEmptyQuery (both wrap domain.ErrValidation).
func (s *State) ToRequest(sch domschema.Schema, limit int) (request.Request, error) {
	s.mu.RLock()
	query, values := s.query, maps.Clone(s.values)
	if limit <= 0 {
		limit = s.limit
	}
	s.mu.RUnlock()

	filters, err := coerceAll(sch, values)
	if err != nil {
		return request.Request{}, err
	}
	return request.New(query, filters, limit, s.limits)
}

// ToExportRequest builds an export request. Unlike ToRequest an empty
// query with no filters is accepted.
func (s *State) ToExportRequest(sch domschema.Schema, f domexport.Format) (request.Export, error) {
	s.mu.RLock()
	query, values := s.query, maps.Clone(s.values)
	s.mu.RUnlock()

	filters, err := coerceAll(sch, values)
	if err != nil {
		return request.Export{}, err
	}
	return request.NewExport(query, filters, f)
}

// Apply replaces the state with the contents of a request.
func (s *State) Apply(req request.Request) {
	values := make(map[string]any)
	for k, v := range req.Filters() {
		values[k] = v.Interface()
	}
	s.mu.Lock()
	s.query = req.Query()
	s.values = values
	s.limit = req.Limit()
	s.mu.Unlock()
}

// Clear resets query, values and page size.
func (s *State) Clear() {
	s.mu.Lock()
	s.query = ""
	s.values = make(map[string]any)
	s.limit = s.limits.Clamp(0)
	s.mu.Unlock()
}

func coerceAll(sch domschema.Schema, values map[string]any) (map[string]filter.Value, error) {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make(map[string]filter.Value, len(names))
	for _, name := range names {
		var ft field.Type
		if f, ok := sch.Lookup(name); ok {
			ft = f.FieldType()
		}
		v, ok, err := filter.Coerce(name, ft, values[name])
		if err != nil {
			return nil, err
		}
		if ok {
			out[name] = v
		}
	}
	return out, nil
}
