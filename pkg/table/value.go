package table

import (
	"math"
	"strconv"
	"time"

	"github.com/moznion/go-optional"
)

// Kind identifies what a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindFloat
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "null"
	}
}

// Value is a single table cell. The zero Value is missing.
type Value struct {
	kind Kind
	f    float64
	s    string
	t    time.Time
}

// Null returns a missing value.
func Null() Value {
	return Value{} //nolint:exhaustruct // zero value is the missing marker
}

// Float returns a numeric value. NaN is treated as missing.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}

	return Value{kind: KindFloat, f: f} //nolint:exhaustruct
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, s: s} //nolint:exhaustruct
}

// Time returns a time value. The zero time is treated as missing.
func Time(t time.Time) Value {
	if t.IsZero() {
		return Null()
	}

	return Value{kind: KindTime, t: t} //nolint:exhaustruct
}

// FromAny converts a value scanned from a database or decoded from JSON.
// Unknown types are rendered as strings.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case float64:
		return Float(x)
	case float32:
		return Float(float64(x))
	case int:
		return Float(float64(x))
	case int8:
		return Float(float64(x))
	case int16:
		return Float(float64(x))
	case int32:
		return Float(float64(x))
	case int64:
		return Float(float64(x))
	case uint8:
		return Float(float64(x))
	case uint16:
		return Float(float64(x))
	case uint32:
		return Float(float64(x))
	case uint64:
		return Float(float64(x))
	case bool:
		if x {
			return Float(1)
		}

		return Float(0)
	case string:
		return String(x)
	case []byte:
		return String(string(x))
	case time.Time:
		return Time(x)
	case *time.Time:
		if x == nil {
			return Null()
		}

		return Time(*x)
	case optional.Option[float64]:
		if x.IsNone() {
			return Null()
		}

		return Float(x.Unwrap())
	case optional.Option[string]:
		if x.IsNone() {
			return Null()
		}

		return String(x.Unwrap())
	default:
		if s, ok := v.(interface{ String() string }); ok {
			return String(s.String())
		}

		return Null()
	}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is missing.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Float returns the numeric content if the value is a float.
func (v Value) Float() optional.Option[float64] {
	if v.kind != KindFloat {
		return optional.None[float64]()
	}

	return optional.Some(v.f)
}

// Text returns the string content if the value is a string.
func (v Value) Text() optional.Option[string] {
	if v.kind != KindString {
		return optional.None[string]()
	}

	return optional.Some(v.s)
}

// Time returns the time content if the value is a time.
func (v Value) Time() optional.Option[time.Time] {
	if v.kind != KindTime {
		return optional.None[time.Time]()
	}

	return optional.Some(v.t)
}

// Any returns the Go representation used by sql drivers and encoders:
// nil, float64, string or time.Time.
func (v Value) Any() any {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// String formats the value for row-oriented text output.
// Missing values render as the empty string; times at UTC midnight render as a date.
func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	case KindTime:
		return FormatTime(v.t)
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindTime:
		return v.t.Equal(other.t)
	default:
		return true
	}
}

// FormatTime renders t as YYYY-MM-DD when it falls on UTC midnight, RFC3339 otherwise.
func FormatTime(t time.Time) string {
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format(time.DateOnly)
	}

	return t.Format(time.RFC3339)
}
