// Package value holds the tagged-union scalar stored in document fields.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind discriminates the variants of Value.
type Kind uint8

// Value kinds.
const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	Date
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Date:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is an immutable loosely-typed scalar. The zero value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
}

// NullValue returns the Null value.
func NullValue() Value { return Value{} }

// BoolOf wraps a bool.
func BoolOf(b bool) Value { return Value{kind: Bool, b: b} }

// IntOf wraps an int64.
func IntOf(i int64) Value { return Value{kind: Int, i: i} }

// FloatOf wraps a float64. NaN and infinities become Null.
func FloatOf(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: Float, f: f}
}

// StringOf wraps a string.
func StringOf(s string) Value { return Value{kind: String, s: s} }

// DateOf wraps a timestamp, normalized to UTC with millisecond precision.
func DateOf(t time.Time) Value {
	return Value{kind: Date, t: t.UTC().Truncate(time.Millisecond)}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == Null }

// Bool returns the bool payload and whether v is a Bool.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == Bool }

// Int returns the int payload and whether v is an Int.
func (v Value) Int() (int64, bool) { return v.i, v.kind == Int }

// Float returns the numeric payload widened to float64 for Int and Float.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case Float:
		return v.f, true
	case Int:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// Str returns the string payload and whether v is a String.
func (v Value) Str() (string, bool) { return v.s, v.kind == String }

// Time returns the timestamp payload and whether v is a Date.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == Date }

// String renders the canonical textual form. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case Bool:
		return strconv.FormatBool(v.b)
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case String:
		return v.s
	case Date:
		return v.t.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case Bool:
		return v.b == o.b
	case Int:
		return v.i == o.i
	case Float:
		return v.f == o.f
	case String:
		return v.s == o.s
	case Date:
		return v.t.Equal(o.t)
	default:
		return false
	}
}

// MarshalJSON encodes the natural JSON scalar. Dates are RFC 3339 strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Bool:
		return json.Marshal(v.b)
	case Int:
		return json.Marshal(v.i)
	case Float:
		return json.Marshal(v.f)
	case String:
		return json.Marshal(v.s)
	case Date:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar. Strings stay strings; dates are
// recognized only against a schema (see ToDate).
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// FromAny converts a decoded JSON scalar (decoder with UseNumber) into a Value.
// Nested arrays and objects are kept as their compact JSON text.
func FromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{}, nil
	case bool:
		return BoolOf(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return IntOf(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("number %q: %w", x, err)
		}
		return FloatOf(f), nil
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return IntOf(int64(x)), nil
		}
		return FloatOf(x), nil
	case int:
		return IntOf(int64(x)), nil
	case int64:
		return IntOf(x), nil
	case string:
		return StringOf(x), nil
	case time.Time:
		return DateOf(x), nil
	case []any, map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return Value{}, err
		}
		return StringOf(string(b)), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}
