// Package sqlgen renders a loaded dataset as literal SQL INSERT statements.
package sqlgen

import (
	"math"
	"strconv"
	"strings"

	"xl2sql/internal/core"
)

// FormatValue returns the SQL literal text for a single cell.
//
// The boolean rule compares the value's text form, so a string cell holding
// "true" or "FALSE" renders as 1 or 0 just like a boolean cell does.
func FormatValue(v core.Value) string {
	if v.IsNull() {
		return "NULL"
	}

	text := v.Text()
	switch {
	case strings.EqualFold(text, "true"):
		return "1"
	case strings.EqualFold(text, "false"):
		return "0"
	}

	switch v.Kind {
	case core.KindString:
		return QuoteString(v.StringValue())
	case core.KindTimestamp:
		return "'" + text + "'"
	case core.KindFloat:
		f := v.FloatValue()
		if f == 0 {
			return "0"
		}
		if isIntegral(f) {
			return strconv.FormatFloat(f, 'f', 0, 64)
		}
		return text
	default:
		return text
	}
}

// QuoteString wraps s in single quotes, doubling embedded quotes.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}
