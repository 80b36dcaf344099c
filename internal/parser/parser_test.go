package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xl2sql/internal/core"
	"xl2sql/internal/parser/csv"
	"xl2sql/internal/parser/excel"
)

func TestNewChoosesReaderByExtension(t *testing.T) {
	tests := []struct {
		path string
		want any
	}{
		{path: "data.csv", want: &csv.Parser{}},
		{path: "DATA.CSV", want: &csv.Parser{}},
		{path: "data.tsv", want: &csv.Parser{}},
		{path: "data.xlsx", want: &excel.XLSXParser{}},
		{path: "data.xlsm", want: &excel.XLSXParser{}},
		{path: "data.xls", want: &excel.XLSParser{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := New(tt.path, Options{})
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
		})
	}
}

func TestNewTSVUsesTab(t *testing.T) {
	p, err := New("data.tsv", Options{})
	require.NoError(t, err)
	assert.Equal(t, '\t', p.(*csv.Parser).Delimiter)
}

func TestNewDelimiterOverride(t *testing.T) {
	p, err := New("data.csv", Options{Delimiter: ";"})
	require.NoError(t, err)
	assert.Equal(t, ';', p.(*csv.Parser).Delimiter)

	p, err = New("data.txt", Options{Delimiter: `\t`})
	require.NoError(t, err)
	assert.Equal(t, '\t', p.(*csv.Parser).Delimiter)

	_, err = New("data.csv", Options{Delimiter: ";;"})
	assert.Error(t, err)
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := ParseFile("report.pdf", Options{})
	var ufe *UnsupportedFormatError
	require.True(t, errors.As(err, &ufe))
	assert.Equal(t, "report.pdf", ufe.Path)
	assert.Contains(t, err.Error(), ".xlsx")
}

func TestParseFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, []byte("id;name\n1;Ann\n"), 0644))

	ds, err := ParseFile(path, Options{Delimiter: ";"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, ds.Columns)
	assert.Equal(t, core.Row{core.Int(1), core.String("Ann")}, ds.Rows[0])
}
