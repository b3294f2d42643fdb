package schema

import (
	"fmt"

	"github.com/kailas-cloud/varsearch/internal/domain/schema/field"
)

// Schema is the read-only catalog of searchable fields.
// It keeps the server's field order for rendering and a name index for lookup.
type Schema struct {
	fields []field.Field
	byName map[string]int
}

// New validates and creates a Schema. Field names must be unique.
func New(fields []field.Field) (Schema, error) {
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		if _, dup := byName[f.Name()]; dup {
			return Schema{}, fmt.Errorf("duplicate field name: %s", f.Name())
		}
		byName[f.Name()] = i
	}
	out := make([]field.Field, len(fields))
	copy(out, fields)
	return Schema{fields: out, byName: byName}, nil
}

// Empty returns a schema with no fields (used when the catalog is unavailable).
func Empty() Schema { return Schema{} }

// Fields returns the fields in server order.
func (s Schema) Fields() []field.Field {
	out := make([]field.Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Lookup returns the field by name.
func (s Schema) Lookup(name string) (field.Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return field.Field{}, false
	}
	return s.fields[i], true
}

// Len returns the number of fields.
func (s Schema) Len() int { return len(s.fields) }

// IsEmpty reports whether the schema has no fields.
func (s Schema) IsEmpty() bool { return len(s.fields) == 0 }
