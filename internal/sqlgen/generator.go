package sqlgen

import (
	"fmt"
	"io"
	"os"
	"strings"

	"xl2sql/internal/core"
)

// Options controls statement generation.
type Options struct {
	// Table is used verbatim as the INSERT target.
	Table string
	// IdentityInsert wraps the inserts in SET IDENTITY_INSERT ON/OFF.
	IdentityInsert bool
}

// Script is the ordered list of statements generated for one dataset.
type Script struct {
	Table          string
	IdentityInsert bool
	Rows           int
	Statements     []string
}

// Generate builds one INSERT statement per dataset row, in row order.
func Generate(ds *core.Dataset, opts Options) (*Script, error) {
	table := strings.TrimSpace(opts.Table)
	if table == "" {
		return nil, &core.ValidationError{Field: "table", Message: "please enter a table name"}
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	s := &Script{
		Table:          table,
		IdentityInsert: opts.IdentityInsert,
		Rows:           len(ds.Rows),
		Statements:     make([]string, 0, len(ds.Rows)+2),
	}

	if opts.IdentityInsert {
		s.Statements = append(s.Statements, identityInsert(table, true))
	}

	// The column list never changes between rows.
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES (", table, strings.Join(ds.Columns, ", "))
	literals := make([]string, len(ds.Columns))
	for _, row := range ds.Rows {
		for i, v := range row {
			literals[i] = FormatValue(v)
		}
		s.Statements = append(s.Statements, prefix+strings.Join(literals, ", ")+");")
	}

	if opts.IdentityInsert {
		s.Statements = append(s.Statements, identityInsert(table, false))
	}

	return s, nil
}

func identityInsert(table string, on bool) string {
	state := "OFF"
	if on {
		state = "ON"
	}
	return fmt.Sprintf("SET IDENTITY_INSERT %s %s;", table, state)
}

// InsertStatements returns the statements without the identity toggles.
func (s *Script) InsertStatements() []string {
	if s == nil {
		return nil
	}
	if s.IdentityInsert && len(s.Statements) >= 2 {
		return s.Statements[1 : len(s.Statements)-1]
	}
	return s.Statements
}

// String joins the statements with newlines. There is no trailing newline.
func (s *Script) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(s.Statements, "\n")
}

// WriteTo writes the script text to w.
func (s *Script) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

// SaveToFile writes the script to path in a single write call.
func (s *Script) SaveToFile(path string) error {
	return os.WriteFile(path, []byte(s.String()), 0644)
}
