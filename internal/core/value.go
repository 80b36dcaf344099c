// Package core holds the in-memory model shared by every stage of the
// conversion: typed cell values, the loaded dataset, and the error kinds the
// conversion surfaces to its caller.
package core

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the text layout used for timestamp cells.
const TimestampLayout = "2006-01-02 15:04:05"

// Kind identifies the semantic type of a cell value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTimestamp
)

var kindNames = map[Kind]string{
	KindNull:      "null",
	KindBool:      "bool",
	KindInt:       "int",
	KindFloat:     "float",
	KindString:    "string",
	KindTimestamp: "timestamp",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is a single typed cell. The kind is decided once by the reader
// that loaded the cell; only the field matching Kind is meaningful.
type Value struct {
	Kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
}

// Null returns the missing value.
func Null() Value { return Value{Kind: KindNull} }

// Bool returns a boolean cell.
func Bool(b bool) Value { return Value{Kind: KindBool, b: b} }

// Int returns an integer cell.
func Int(i int64) Value { return Value{Kind: KindInt, i: i} }

// Float returns a floating-point cell. NaN is treated as missing.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{Kind: KindFloat, f: f}
}

// String returns a text cell.
func String(s string) Value { return Value{Kind: KindString, s: s} }

// Timestamp returns a date/time cell.
func Timestamp(t time.Time) Value { return Value{Kind: KindTimestamp, t: t} }

// IsNull reports whether v is missing.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// BoolValue returns the boolean payload.
func (v Value) BoolValue() bool { return v.b }

// IntValue returns the integer payload.
func (v Value) IntValue() int64 { return v.i }

// FloatValue returns the floating-point payload.
func (v Value) FloatValue() float64 { return v.f }

// StringValue returns the text payload.
func (v Value) StringValue() string { return v.s }

// TimeValue returns the timestamp payload.
func (v Value) TimeValue() time.Time { return v.t }

// Text returns the plain text form of the value, without any SQL quoting.
// Booleans render as True/False.
func (v Value) Text() string {
	switch v.Kind {
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return FormatFloat(v.f)
	case KindString:
		return v.s
	case KindTimestamp:
		return v.t.Format(TimestampLayout)
	default:
		return ""
	}
}

// FormatFloat renders f with the shortest digits that round-trip. Plain
// decimal notation is used unless the decimal exponent is below -4 or at
// least 16, where the exponent form (1e-07, 1.5e+16) is used instead.
// Infinities render as inf and -inf.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	if i := strings.IndexByte(sci, 'e'); i >= 0 {
		if exp, err := strconv.Atoi(sci[i+1:]); err == nil && (exp < -4 || exp >= 16) {
			return sci
		}
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
