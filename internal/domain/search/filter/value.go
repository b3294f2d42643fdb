package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind is the runtime type of a filter value.
type Kind uint8

// Value kinds. The zero Kind marks an unset Value.
const (
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	default:
		return "invalid"
	}
}

// Value is a typed filter value: exactly one of string, number or boolean.
// It encodes to the matching native JSON type.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number creates a numeric value. The caller guarantees n is finite.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Kind returns the value's runtime type.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether the value was set.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Str returns the string payload (empty for other kinds).
func (v Value) Str() string { return v.str }

// Num returns the numeric payload (zero for other kinds).
func (v Value) Num() float64 { return v.num }

// Bool returns the boolean payload (false for other kinds).
func (v Value) Bool() bool { return v.b }

// Interface returns the value as string, float64 or bool.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBoolean:
		return v.b
	default:
		return nil
	}
}

// Text renders the value the way a user would type it.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.str == o.str && v.num == o.num && v.b == o.b
}

// MarshalJSON encodes the native JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, fmt.Errorf("filter value %v is not finite", v.num)
		}
		return json.Marshal(v.num)
	case KindBoolean:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a native JSON string, number or boolean.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode string filter value: %w", err)
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("decode boolean filter value: %w", err)
		}
		*v = Bool(b)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decode numeric filter value: %w", err)
		}
		*v = Number(n)
	}
	return nil
}
