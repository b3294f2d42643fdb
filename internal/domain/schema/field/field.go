package field

import (
	"fmt"
	"strings"
)

// Type is the primitive type of a searchable field.
type Type string

// Field type constants.
const (
	String  Type = "string"
	Number  Type = "number"
	Boolean Type = "boolean"
	// Date values travel as strings; the server interprets them.
	Date Type = "date"
)

// IsValid checks if the type is one of the supported primitives.
func (t Type) IsValid() bool {
	return t == String || t == Number || t == Boolean || t == Date
}

// ParseType maps a wire type name to a Type.
// Accepts the canonical names plus the aliases some backends emit
// (int, integer, float, bool).
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "str", "text":
		return String, nil
	case "number", "int", "integer", "float", "decimal":
		return Number, nil
	case "boolean", "bool":
		return Boolean, nil
	case "date", "datetime":
		return Date, nil
	default:
		return "", fmt.Errorf("unknown field type %q", s)
	}
}

// Field is an immutable value object describing one searchable column.
type Field struct {
	name        string
	label       string
	fieldType   Type
	description string
	suggestions []string
}

// New validates and creates a Field.
// Label defaults to the name when empty.
func New(name, label string, ft Type, description string, suggestions []string) (Field, error) {
	if strings.TrimSpace(name) == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if len(name) > 128 {
		return Field{}, fmt.Errorf("field name %q too long (max 128)", name)
	}
	if !ft.IsValid() {
		return Field{}, fmt.Errorf("invalid field type %q for %q", ft, name)
	}
	if label == "" {
		label = name
	}
	var sugg []string
	if len(suggestions) > 0 {
		sugg = make([]string, len(suggestions))
		copy(sugg, suggestions)
	}
	return Field{
		name:        name,
		label:       label,
		fieldType:   ft,
		description: description,
		suggestions: sugg,
	}, nil
}

// Name returns the unique field key.
func (f Field) Name() string { return f.name }

// Label returns the display name.
func (f Field) Label() string { return f.label }

// FieldType returns the primitive type.
func (f Field) FieldType() Type { return f.fieldType }

// Description returns the optional help text.
func (f Field) Description() string { return f.description }

// Suggestions returns a copy of the ordered suggested values.
func (f Field) Suggestions() []string {
	if len(f.suggestions) == 0 {
		return nil
	}
	out := make([]string, len(f.suggestions))
	copy(out, f.suggestions)
	return out
}
