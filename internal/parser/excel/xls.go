package excel

import (
	"fmt"

	"github.com/extrame/xls"

	"xl2sql/internal/core"
	"xl2sql/internal/parser/infer"
)

// XLSParser reads legacy BIFF (.xls) workbooks. The decoder only exposes
// formatted text, so cell types are inferred per column.
type XLSParser struct {
	Sheet    string
	Charset  string
	NAValues []string
}

// NewXLSParser creates a parser reading the given sheet.
func NewXLSParser(sheet string) *XLSParser {
	return &XLSParser{Sheet: sheet, Charset: "utf-8"}
}

// ParseFile opens the workbook at path and reads one worksheet.
func (p *XLSParser) ParseFile(path string) (ds *core.Dataset, err error) {
	// The BIFF decoder panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			ds, err = nil, fmt.Errorf("xls: decode %q: %v", path, r)
		}
	}()

	wb, err := xls.Open(path, p.Charset)
	if err != nil {
		return nil, fmt.Errorf("xls: open file %q: %w", path, err)
	}
	if wb == nil {
		return nil, fmt.Errorf("xls: open file %q: no workbook stream", path)
	}

	names := make([]string, 0, wb.NumSheets())
	sheets := make(map[string]*xls.WorkSheet, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		s := wb.GetSheet(i)
		if s == nil {
			continue
		}
		names = append(names, s.Name)
		sheets[s.Name] = s
	}

	name, err := selectSheet(names, p.Sheet)
	if err != nil {
		return nil, err
	}
	return p.read(sheets[name])
}

func (p *XLSParser) read(sheet *xls.WorkSheet) (*core.Dataset, error) {
	var raw [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := rowAt(sheet, i)
		if row == nil {
			continue
		}
		cells := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells[c] = row.Col(c)
		}
		if isBlank(cells) {
			continue
		}
		raw = append(raw, cells)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("xls: sheet %q: no columns to parse", sheet.Name)
	}

	width := 0
	for _, r := range raw {
		width = max(width, len(r))
	}

	header := make([]string, width)
	copy(header, raw[0])

	records := make([][]string, 0, len(raw)-1)
	for _, r := range raw[1:] {
		rec := make([]string, width)
		copy(rec, r)
		records = append(records, rec)
	}

	ds := core.NewDataset(core.NormalizeColumns(header))
	rows := infer.Columns(records, infer.Options{NAValues: p.NAValues, ParseTimes: true})
	for _, row := range rows {
		if err := ds.AddRow(row); err != nil {
			return nil, fmt.Errorf("xls: %w", err)
		}
	}
	return ds, nil
}

// rowAt returns row i, or nil when the sheet stores no records for it.
// The decoder dereferences a nil row in that case.
func rowAt(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}
