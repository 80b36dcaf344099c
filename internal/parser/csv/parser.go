// Package csv reads delimited text files into a core.Dataset. The first
// record is the header; cell types are inferred per column.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"xl2sql/internal/core"
	"xl2sql/internal/parser/infer"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNoColumns is returned for input without a header record.
var ErrNoColumns = errors.New("no columns to parse from file")

// Parser reads CSV (or other single-character delimited) files.
type Parser struct {
	Delimiter rune
	Infer     infer.Options
}

// NewParser creates a comma-delimited parser.
func NewParser() *Parser {
	return &Parser{Delimiter: ','}
}

// ParseFile opens the file at path and parses it.
func (p *Parser) ParseFile(path string) (*core.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads all records from r.
func (p *Parser) Parse(r io.Reader) (*core.Dataset, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	if p.Delimiter != 0 {
		cr.Comma = p.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	width := len(header)
	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		if len(rec) > width {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("csv: expected %d fields in line %d, saw %d", width, line, len(rec))
		}
		for len(rec) < width {
			rec = append(rec, "")
		}
		records = append(records, rec)
	}

	ds := core.NewDataset(core.NormalizeColumns(header))
	for _, row := range infer.Columns(records, p.Infer) {
		if err := ds.AddRow(row); err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
	}
	return ds, nil
}
