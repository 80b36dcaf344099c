// Package infer decides cell types for sources that only carry text, such as
// CSV files and legacy XLS workbooks. Types are decided per column: a column
// is numeric only when every non-missing cell in it is numeric.
package infer

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"xl2sql/internal/core"
)

// DefaultNAValues are cell texts read as missing values.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// TimeLayouts are tried in order when ParseTimes is enabled.
var TimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/2006",
}

// Options tune inference.
type Options struct {
	// NAValues overrides DefaultNAValues when non-nil.
	NAValues []string
	// ParseTimes enables timestamp detection.
	ParseTimes bool
}

type columnKind int

const (
	columnEmpty columnKind = iota
	columnInt
	columnFloat
	columnBool
	columnTime
	columnString
)

// Columns converts text records into typed rows. Every record must have the
// same width; callers pad short records before calling.
func Columns(records [][]string, opts Options) []core.Row {
	if len(records) == 0 {
		return nil
	}
	na := naSet(opts.NAValues)
	width := len(records[0])

	kinds := make([]columnKind, width)
	for col := range width {
		kinds[col] = detect(records, col, na, opts.ParseTimes)
	}

	rows := make([]core.Row, len(records))
	for r, rec := range records {
		row := make(core.Row, width)
		for col := range width {
			row[col] = convert(rec[col], kinds[col], na)
		}
		rows[r] = row
	}
	return rows
}

func naSet(values []string) map[string]struct{} {
	if values == nil {
		values = DefaultNAValues
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func isNA(s string, na map[string]struct{}) bool {
	_, ok := na[s]
	return ok
}

func detect(records [][]string, col int, na map[string]struct{}, parseTimes bool) columnKind {
	allInt, allFloat, allBool, allTime := true, true, true, parseTimes
	seen := false

	for _, rec := range records {
		cell := rec[col]
		if isNA(cell, na) {
			continue
		}
		seen = true
		text := strings.TrimSpace(cell)

		if allInt {
			if _, ok := parseInt(text); !ok {
				allInt = false
			}
		}
		if allFloat {
			if _, ok := parseFloat(text); !ok || intOverflows(text) {
				allFloat = false
			}
		}
		if allBool {
			if _, ok := parseBool(text); !ok {
				allBool = false
			}
		}
		if allTime {
			if _, ok := ParseTime(text); !ok {
				allTime = false
			}
		}
		if !allInt && !allFloat && !allBool && !allTime {
			return columnString
		}
	}

	switch {
	case !seen:
		return columnEmpty
	case allInt:
		return columnInt
	case allFloat:
		return columnFloat
	case allBool:
		return columnBool
	case allTime:
		return columnTime
	default:
		return columnString
	}
}

func convert(cell string, kind columnKind, na map[string]struct{}) core.Value {
	if isNA(cell, na) {
		return core.Null()
	}
	text := strings.TrimSpace(cell)

	switch kind {
	case columnInt:
		i, _ := parseInt(text)
		return core.Int(i)
	case columnFloat:
		f, _ := parseFloat(text)
		return core.Float(f)
	case columnBool:
		b, _ := parseBool(text)
		return core.Bool(b)
	case columnTime:
		t, _ := ParseTime(text)
		return core.Timestamp(t)
	default:
		return core.String(cell)
	}
}

func parseInt(s string) (int64, bool) {
	i, err := strconv.ParseInt(s, 10, 64)
	return i, err == nil
}

// intOverflows reports whether s is integer text outside the int64 range.
// Such a column stays text so no digits are lost to float rounding.
func intOverflows(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return errors.Is(err, strconv.ErrRange)
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// ParseTime parses s with the first matching layout in TimeLayouts.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
