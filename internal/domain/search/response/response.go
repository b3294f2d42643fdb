package response

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Record is one result row. Values are whatever JSON scalar the server sent.
type Record map[string]any

// ID returns the record identifier rendered as text.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// FacetBucket is a value count inside a facet.
type FacetBucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Response is a complete search result page.
type Response struct {
	data   []Record
	total  int
	facets map[string][]FacetBucket
}

// New creates a response. A negative total is raised to len(data).
func New(data []Record, total int, facets map[string][]FacetBucket) Response {
	if total < len(data) {
		total = len(data)
	}
	return Response{data: data, total: total, facets: facets}
}

// Data returns a copy of the records on this page.
func (r Response) Data() []Record {
	if r.data == nil {
		return nil
	}
	out := make([]Record, len(r.data))
	for i, rec := range r.data {
		out[i] = maps.Clone(rec)
	}
	return out
}

// Total returns the number of matches, possibly larger than len(Data()).
func (r Response) Total() int { return r.total }

// Facets returns the optional facet counts.
func (r Response) Facets() map[string][]FacetBucket { return maps.Clone(r.facets) }

// Columns returns the record keys in first-seen order with "id" first.
func (r Response) Columns() []string {
	seen := map[string]bool{"id": true}
	cols := []string{"id"}
	for _, rec := range r.data {
		for _, k := range sortedKeys(rec) {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

type wireResponse struct {
	Data   []Record                 `json:"data"`
	Total  int                      `json:"total"`
	Facets map[string][]FacetBucket `json:"facets,omitempty"`
}

// MarshalJSON encodes {data, total, facets}.
func (r Response) MarshalJSON() ([]byte, error) {
	data := r.data
	if data == nil {
		data = []Record{}
	}
	out, err := json.Marshal(wireResponse{Data: data, Total: r.total, Facets: r.facets})
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}

// UnmarshalJSON decodes {data, total, facets}.
func (r *Response) UnmarshalJSON(b []byte) error {
	var w wireResponse
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	*r = New(w.Data, w.Total, w.Facets)
	return nil
}
