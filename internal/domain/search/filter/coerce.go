package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/varsearch/internal/domain"
	"github.com/kailas-cloud/varsearch/internal/domain/schema/field"
)

// Boolean literals accepted from text input.
const (
	literalTrue  = "true"
	literalFalse = "false"
)

// IsBlank reports whether raw counts as "not set" (nil or the empty string).
// Whitespace is not blank here; string coercion trims it later.
func IsBlank(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case *string:
		return v == nil || *v == ""
	default:
		return false
	}
}

// Coerce converts raw user input for a field of type ft into a typed Value.
//
// The returned bool is false when the input is dropped from the filter set
// rather than rejected: blank input, empty-after-trim strings, and boolean
// input other than the literals "true"/"false".
// An empty ft means the field is not in the schema; the raw value's own kind
// decides which rule applies.
func Coerce(name string, ft field.Type, raw any) (Value, bool, error) {
	if IsBlank(raw) {
		return Value{}, false, nil
	}
	if p, ok := raw.(*string); ok {
		raw = *p
	}
	if v, ok := raw.(Value); ok {
		raw = v.Interface()
		if raw == nil {
			return Value{}, false, nil
		}
	}

	if ft == "" {
		ft = inferType(raw)
	}

	switch ft {
	case field.Number:
		return coerceNumber(name, raw)
	case field.Boolean:
		return coerceBoolean(raw)
	case field.String, field.Date:
		return coerceString(raw)
	default:
		return Value{}, false, fmt.Errorf("field %q: unsupported type %q", name, ft)
	}
}

func inferType(raw any) field.Type {
	switch raw.(type) {
	case bool:
		return field.Boolean
	case float64, float32, int, int32, int64, uint, uint32, uint64, json.Number:
		return field.Number
	default:
		return field.String
	}
}

func coerceNumber(name string, raw any) (Value, bool, error) {
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint32:
		n = float64(v)
	case uint64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Value{}, false, domain.NewInvalidNumber(name, raw)
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return Value{}, false, domain.NewInvalidNumber(name, raw)
		}
		n = f
	default:
		return Value{}, false, domain.NewInvalidNumber(name, raw)
	}

	// Numeric filters in this dataset are quantities: zero and negatives are rejected.
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return Value{}, false, domain.NewInvalidNumber(name, raw)
	}
	return Number(n), true, nil
}

func coerceBoolean(raw any) (Value, bool, error) {
	switch v := raw.(type) {
	case bool:
		return Bool(v), true, nil
	case string:
		switch v {
		case literalTrue:
			return Bool(true), true, nil
		case literalFalse:
			return Bool(false), true, nil
		}
	}
	// Anything else is treated as unset, not as an error.
	return Value{}, false, nil
}

func coerceString(raw any) (Value, bool, error) {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	default:
		s = fmt.Sprint(v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}, false, nil
	}
	return String(s), true, nil
}
