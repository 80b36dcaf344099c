// Package parser loads tabular source files (CSV, XLSX, XLS) into the
// canonical core.Dataset representation, choosing a reader by extension.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"xl2sql/internal/core"
	"xl2sql/internal/parser/csv"
	"xl2sql/internal/parser/excel"
)

// Parser reads one source file into a dataset.
type Parser interface {
	ParseFile(path string) (*core.Dataset, error)
}

// Options select reader-specific behaviour.
type Options struct {
	// Sheet names the worksheet to read from a workbook; empty means the first.
	Sheet string
	// Delimiter overrides the delimiter for text files.
	Delimiter string
}

// SupportedExtensions lists the file extensions ParseFile accepts.
func SupportedExtensions() []string {
	return []string{".csv", ".tsv", ".txt", ".xlsx", ".xlsm", ".xls"}
}

// New returns the reader for path's extension.
func New(path string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".csv", ".txt", ".tsv":
		p := csv.NewParser()
		if ext == ".tsv" {
			p.Delimiter = '\t'
		}
		if opts.Delimiter != "" {
			d, err := parseDelimiter(opts.Delimiter)
			if err != nil {
				return nil, err
			}
			p.Delimiter = d
		}
		return p, nil
	case ".xlsx", ".xlsm":
		return excel.NewXLSXParser(opts.Sheet), nil
	case ".xls":
		return excel.NewXLSParser(opts.Sheet), nil
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}
}

// ParseFile loads the dataset stored at path.
func ParseFile(path string, opts Options) (*core.Dataset, error) {
	p, err := New(path, opts)
	if err != nil {
		return nil, err
	}
	return p.ParseFile(path)
}

func parseDelimiter(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q: must be a single character", s)
	}
	return r, nil
}

type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s (expected one of %s)", e.Path, strings.Join(SupportedExtensions(), ", "))
}
