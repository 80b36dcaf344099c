// Package convert runs the spreadsheet-to-INSERT conversion end to end:
// validate the request, load the dataset, generate the script, and write it
// next to the source file. Failures come back as *core.ValidationError,
// *core.LoadError or *core.WriteError; nothing is written unless every
// earlier stage succeeded.
package convert

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"xl2sql/internal/core"
	"xl2sql/internal/parser"
	"xl2sql/internal/sqlgen"
)

// OutputSuffix is appended to the table name to form the output file name.
const OutputSuffix = "_Insert.sql"

// Request carries the inputs of one conversion run.
type Request struct {
	Path           string
	Table          string
	IdentityInsert bool

	// Sheet and Delimiter are passed to the reader.
	Sheet     string
	Delimiter string
	// OutputDir replaces the source directory when set.
	OutputDir string
	// OutputPath overrides the whole output location when set.
	OutputPath string
}

// Result describes a completed run.
type Result struct {
	OutputPath string
	Rows       int
	Statements int
}

// Converter executes conversion requests.
type Converter struct {
	logger *slog.Logger
}

// New creates a converter logging to logger; nil uses slog.Default().
func New(logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{logger: logger}
}

// Validate checks the request before any file is parsed.
func (r Request) Validate() error {
	info, err := os.Stat(r.Path)
	if r.Path == "" || err != nil || !info.Mode().IsRegular() {
		return &core.ValidationError{Field: "path", Message: "invalid file path"}
	}
	if strings.TrimSpace(r.Table) == "" {
		return &core.ValidationError{Field: "table", Message: "please enter a table name"}
	}
	return nil
}

// Destination returns where the script for r is written.
func (r Request) Destination() string {
	if r.OutputPath != "" {
		return r.OutputPath
	}
	dir := r.OutputDir
	if dir == "" {
		dir = filepath.Dir(r.Path)
	}
	return filepath.Join(dir, strings.TrimSpace(r.Table)+OutputSuffix)
}

// Build validates the request, loads the source file and generates the
// script without writing anything.
func (c *Converter) Build(req Request) (*sqlgen.Script, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := c.logger.With("path", req.Path, "table", req.Table)
	log.Debug("loading source file")

	ds, err := parser.ParseFile(req.Path, parser.Options{Sheet: req.Sheet, Delimiter: req.Delimiter})
	if err != nil {
		return nil, &core.LoadError{Path: req.Path, Err: err}
	}
	log.Debug("source file loaded", "rows", len(ds.Rows), "columns", len(ds.Columns))

	script, err := sqlgen.Generate(ds, sqlgen.Options{Table: req.Table, IdentityInsert: req.IdentityInsert})
	if err != nil {
		return nil, err
	}
	log.Debug("statements generated", "statements", len(script.Statements))
	return script, nil
}

// Run builds the script and writes it to req.Destination().
func (c *Converter) Run(req Request) (*Result, error) {
	script, err := c.Build(req)
	if err != nil {
		return nil, err
	}

	out := req.Destination()
	if err := script.SaveToFile(out); err != nil {
		return nil, &core.WriteError{Path: out, Err: err}
	}

	c.logger.Info("SQL script saved", "output", out, "rows", script.Rows, "statements", len(script.Statements))
	return &Result{
		OutputPath: out,
		Rows:       script.Rows,
		Statements: len(script.Statements),
	}, nil
}
