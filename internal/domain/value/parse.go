package value

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps, naive timestamps (read as UTC) and
// plain dates.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as date", s)
}

// ParseBool accepts true/false/yes/no/1/0 in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("cannot parse %q as boolean", s)
	}
}

// ToInt converts v to an Int. Strings are parsed, integral floats narrowed.
func ToInt(v Value) (Value, error) {
	switch v.kind {
	case Int:
		return v, nil
	case Float:
		if v.f != float64(int64(v.f)) {
			return Value{}, fmt.Errorf("%v is not an integer", v.f)
		}
		return IntOf(int64(v.f)), nil
	case Bool:
		if v.b {
			return IntOf(1), nil
		}
		return IntOf(0), nil
	case String:
		s := strings.TrimSpace(v.s)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntOf(i), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
			return IntOf(int64(f)), nil
		}
		return Value{}, fmt.Errorf("cannot parse %q as integer", v.s)
	default:
		return Value{}, fmt.Errorf("cannot convert %s to integer", v.kind)
	}
}

// ToFloat converts v to a Float.
func ToFloat(v Value) (Value, error) {
	switch v.kind {
	case Float:
		return v, nil
	case Int:
		return FloatOf(float64(v.i)), nil
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return Value{}, fmt.Errorf("cannot parse %q as number", v.s)
		}
		return FloatOf(f), nil
	default:
		return Value{}, fmt.Errorf("cannot convert %s to number", v.kind)
	}
}

// ToBool converts v to a Bool.
func ToBool(v Value) (Value, error) {
	switch v.kind {
	case Bool:
		return v, nil
	case Int:
		switch v.i {
		case 0:
			return BoolOf(false), nil
		case 1:
			return BoolOf(true), nil
		}
		return Value{}, fmt.Errorf("cannot convert %d to boolean", v.i)
	case String:
		b, err := ParseBool(v.s)
		if err != nil {
			return Value{}, err
		}
		return BoolOf(b), nil
	default:
		return Value{}, fmt.Errorf("cannot convert %s to boolean", v.kind)
	}
}

// ToDate converts v to a Date. Integers are epoch milliseconds.
func ToDate(v Value) (Value, error) {
	switch v.kind {
	case Date:
		return v, nil
	case Int:
		return DateOf(time.UnixMilli(v.i)), nil
	case String:
		t, err := ParseTime(v.s)
		if err != nil {
			return Value{}, err
		}
		return DateOf(t), nil
	default:
		return Value{}, fmt.Errorf("cannot convert %s to date", v.kind)
	}
}
