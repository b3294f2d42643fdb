package request

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/kailas-cloud/varsearch/internal/domain"
	domexport "github.com/kailas-cloud/varsearch/internal/domain/export"
	"github.com/kailas-cloud/varsearch/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed free-text query length.
	MaxQueryLength = 4096
	DefaultLimit   = 50
	MaxLimit       = 500
)

// Limits bounds the page size of a search.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits returns the built-in page size bounds.
func DefaultLimits() Limits { return Limits{Default: DefaultLimit, Max: MaxLimit} }

// Clamp normalizes a requested page size: non-positive → default, above max → max.
func (l Limits) Clamp(limit int) int {
	def, maxLimit := l.Default, l.Max
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if def <= 0 || def > maxLimit {
		def = min(DefaultLimit, maxLimit)
	}
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// Request is a validated search request. It is a value: accessors return copies.
type Request struct {
	query   string
	filters map[string]filter.Value
	limit   int
}

// New validates and normalizes a search request.
// Fails with ErrEmptyQuery when the query is blank and no filter is set.
func New(query string, filters map[string]filter.Value, limit int, lim Limits) (Request, error) {
	query = strings.TrimSpace(query)
	if len(query) > MaxQueryLength {
		return Request{}, &domain.ValidationError{
			Reason: fmt.Sprintf("query too long (max %d chars)", MaxQueryLength),
		}
	}
	clean := copyValid(filters)
	if query == "" && len(clean) == 0 {
		return Request{}, domain.NewEmptyQuery()
	}
	return Request{query: query, filters: clean, limit: lim.Clamp(limit)}, nil
}

// Reconstruct creates a Request without validation (storage hydration).
func Reconstruct(query string, filters map[string]filter.Value, limit int) Request {
	return Request{query: query, filters: copyValid(filters), limit: limit}
}

// Query returns the free-text query.
func (r Request) Query() string { return r.query }

// Filters returns a copy of the active filter mapping.
func (r Request) Filters() map[string]filter.Value { return maps.Clone(r.filters) }

// Limit returns the page size.
func (r Request) Limit() int { return r.limit }

// IsZero reports whether the request was never constructed.
func (r Request) IsZero() bool { return r.query == "" && len(r.filters) == 0 && r.limit == 0 }

// FilterNames returns the filter keys in sorted order.
func (r Request) FilterNames() []string {
	names := make([]string, 0, len(r.filters))
	for k := range r.filters {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether two requests carry the same payload.
func (r Request) Equal(o Request) bool {
	if r.query != o.query || r.limit != o.limit || len(r.filters) != len(o.filters) {
		return false
	}
	for k, v := range r.filters {
		ov, ok := o.filters[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Key returns the canonical encoding of the payload, used as request identity.
// encoding/json sorts map keys, so equal payloads produce equal keys.
func (r Request) Key() string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%q|%v|%d", r.query, r.filters, r.limit)
	}
	return string(data)
}

type wireRequest struct {
	Query   string                  `json:"query"`
	Filters map[string]filter.Value `json:"filters"`
	Limit   int                     `json:"limit,omitempty"`
}

// MarshalJSON encodes {query, filters, limit}.
func (r Request) MarshalJSON() ([]byte, error) {
	filters := r.filters
	if filters == nil {
		filters = map[string]filter.Value{}
	}
	data, err := json.Marshal(wireRequest{Query: r.query, Filters: filters, Limit: r.limit})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return data, nil
}

// UnmarshalJSON decodes {query, filters, limit} without validation.
func (r *Request) UnmarshalJSON(data []byte) error {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	*r = Reconstruct(w.Query, w.Filters, w.Limit)
	return nil
}

// Export is the payload of an export call: same filters, a format, no limit.
type Export struct {
	query   string
	filters map[string]filter.Value
	format  domexport.Format
}

// NewExport validates an export request. An empty query with no filters is
// allowed and exports the whole dataset.
func NewExport(query string, filters map[string]filter.Value, f domexport.Format) (Export, error) {
	if !f.IsValid() {
		return Export{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, f)
	}
	query = strings.TrimSpace(query)
	if len(query) > MaxQueryLength {
		return Export{}, &domain.ValidationError{
			Reason: fmt.Sprintf("query too long (max %d chars)", MaxQueryLength),
		}
	}
	return Export{query: query, filters: copyValid(filters), format: f}, nil
}

// Query returns the free-text query.
func (e Export) Query() string { return e.query }

// Filters returns a copy of the filter mapping.
func (e Export) Filters() map[string]filter.Value { return maps.Clone(e.filters) }

// Format returns the target format.
func (e Export) Format() domexport.Format { return e.format }

// MarshalJSON encodes {query, filters, format}.
func (e Export) MarshalJSON() ([]byte, error) {
	filters := e.filters
	if filters == nil {
		filters = map[string]filter.Value{}
	}
	data, err := json.Marshal(struct {
		Query   string                  `json:"query"`
		Filters map[string]filter.Value `json:"filters"`
		Format  domexport.Format        `json:"format"`
	}{Query: e.query, Filters: filters, Format: e.format})
	if err != nil {
		return nil, fmt.Errorf("encode export request: %w", err)
	}
	return data, nil
}

func copyValid(in map[string]filter.Value) map[string]filter.Value {
	out := make(map[string]filter.Value, len(in))
	for k, v := range in {
		if v.IsValid() {
			out[k] = v
		}
	}
	return out
}
