// Package excel reads spreadsheet workbooks into a core.Dataset. XLSX files
// keep the cell types stored in the workbook; legacy XLS files only expose
// text and go through column-wise inference.
package excel

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"xl2sql/internal/core"
	"xl2sql/internal/parser/infer"
)

// Built-in number format IDs that display dates or times.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// XLSXParser reads .xlsx and .xlsm workbooks.
type XLSXParser struct {
	// Sheet selects a worksheet by name; empty means the first sheet.
	Sheet    string
	NAValues []string
}

// NewXLSXParser creates a parser reading the given sheet.
func NewXLSXParser(sheet string) *XLSXParser {
	return &XLSXParser{Sheet: sheet}
}

// ParseFile opens the workbook at path and reads one worksheet.
func (p *XLSXParser) ParseFile(path string) (*core.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open file %q: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	return p.parse(f)
}

func (p *XLSXParser) parse(f *excelize.File) (*core.Dataset, error) {
	sheet, err := selectSheet(f.GetSheetList(), p.Sheet)
	if err != nil {
		return nil, err
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("xlsx: read sheet %q: %w", sheet, err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	r := &sheetReader{
		f:          f,
		sheet:      sheet,
		date1904:   date1904,
		na:         naSet(p.NAValues),
		dateStyles: make(map[int]bool),
	}
	return r.read(raw)
}

func selectSheet(sheets []string, want string) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no worksheets")
	}
	if want == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == want {
			return s, nil
		}
	}
	return "", fmt.Errorf("worksheet %q not found; available: %s", want, strings.Join(sheets, ", "))
}

type sheetReader struct {
	f          *excelize.File
	sheet      string
	date1904   bool
	na         map[string]struct{}
	dateStyles map[int]bool
}

func (r *sheetReader) read(raw [][]string) (*core.Dataset, error) {
	headerIdx := -1
	for i, row := range raw {
		if !isBlank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("xlsx: sheet %q: no columns to parse", r.sheet)
	}

	width := 0
	for _, row := range raw[headerIdx:] {
		width = max(width, len(row))
	}

	header := make([]string, width)
	copy(header, raw[headerIdx])
	ds := core.NewDataset(core.NormalizeColumns(header))

	for i := headerIdx + 1; i < len(raw); i++ {
		if isBlank(raw[i]) {
			continue
		}
		values := make([]core.Value, len(raw[i]))
		for col, text := range raw[i] {
			v, err := r.cell(col+1, i+1, text)
			if err != nil {
				return nil, err
			}
			values[col] = v
		}
		if err := ds.AddRow(values); err != nil {
			return nil, fmt.Errorf("xlsx: %w", err)
		}
	}
	return ds, nil
}

func (r *sheetReader) cell(col, row int, text string) (core.Value, error) {
	if text == "" {
		return core.Null(), nil
	}

	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return core.Value{}, err
	}
	typ, err := r.f.GetCellType(r.sheet, axis)
	if err != nil {
		return core.Value{}, fmt.Errorf("xlsx: cell %s: %w", axis, err)
	}

	switch typ {
	case excelize.CellTypeBool:
		return core.Bool(text == "1" || strings.EqualFold(text, "true")), nil
	case excelize.CellTypeDate:
		if t, ok := infer.ParseTime(text); ok {
			return core.Timestamp(t), nil
		}
		return core.String(text), nil
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		return r.number(axis, text)
	default:
		if _, ok := r.na[text]; ok {
			return core.Null(), nil
		}
		return core.String(text), nil
	}
}

func (r *sheetReader) number(axis, text string) (core.Value, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		if _, ok := r.na[text]; ok {
			return core.Null(), nil
		}
		return core.String(text), nil
	}

	isDate, err := r.hasDateFormat(axis)
	if err != nil {
		return core.Value{}, err
	}
	if isDate {
		t, err := excelize.ExcelDateToTime(f, r.date1904)
		if err != nil {
			return core.Value{}, fmt.Errorf("xlsx: cell %s: %w", axis, err)
		}
		return core.Timestamp(t.Round(time.Millisecond)), nil
	}

	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return core.Int(i), nil
	}
	if math.IsNaN(f) {
		return core.Null(), nil
	}
	return core.Float(f), nil
}

func (r *sheetReader) hasDateFormat(axis string) (bool, error) {
	styleID, err := r.f.GetCellStyle(r.sheet, axis)
	if err != nil {
		return false, fmt.Errorf("xlsx: cell %s style: %w", axis, err)
	}
	if isDate, ok := r.dateStyles[styleID]; ok {
		return isDate, nil
	}

	style, err := r.f.GetStyle(styleID)
	if err != nil {
		return false, fmt.Errorf("xlsx: style %d: %w", styleID, err)
	}
	isDate := builtinDateFormats[style.NumFmt]
	if !isDate && style.CustomNumFmt != nil {
		isDate = isDateFormatCode(*style.CustomNumFmt)
	}
	r.dateStyles[styleID] = isDate
	return isDate, nil
}

// isDateFormatCode reports whether a custom number format displays a date
// or time. Quoted literals, escaped characters and bracketed sections
// (colours, locales) are ignored.
func isDateFormatCode(code string) bool {
	var sb strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			inQuote = c != '"'
		case inBracket:
			inBracket = c != ']'
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\':
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return strings.ContainsAny(strings.ToLower(sb.String()), "ymdhs")
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func naSet(values []string) map[string]struct{} {
	if values == nil {
		values = infer.DefaultNAValues
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
