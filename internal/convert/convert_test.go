package convert

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xl2sql/internal/core"
	"xl2sql/internal/logging"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunWritesScriptNextToSource(t *testing.T) {
	src := writeSource(t, "users.csv", "id,name\n1,Ann\n")

	res, err := New(logging.Discard()).Run(Request{Path: src, Table: "Users"})
	require.NoError(t, err)

	want := filepath.Join(filepath.Dir(src), "Users_Insert.sql")
	assert.Equal(t, want, res.OutputPath)
	assert.Equal(t, 1, res.Rows)
	assert.Equal(t, 1, res.Statements)

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO Users (id, name) VALUES (1, 'Ann');", string(data))
}

func TestRunWithIdentityInsert(t *testing.T) {
	src := writeSource(t, "users.csv", "id,name\n1,Ann\n2,O'Brien\n")

	res, err := New(logging.Discard()).Run(Request{Path: src, Table: "Users", IdentityInsert: true})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Statements)

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "SET IDENTITY_INSERT Users ON;\n"+
		"INSERT INTO Users (id, name) VALUES (1, 'Ann');\n"+
		"INSERT INTO Users (id, name) VALUES (2, 'O''Brien');\n"+
		"SET IDENTITY_INSERT Users OFF;", string(data))
}

func TestRunEmptyTableName(t *testing.T) {
	src := writeSource(t, "users.csv", "id\n1\n")

	_, err := New(logging.Discard()).Run(Request{Path: src, Table: "  "})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "table", vErr.Field)

	entries, err := os.ReadDir(filepath.Dir(src))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no output file may be created")
}

func TestRunInvalidPath(t *testing.T) {
	dir := t.TempDir()

	for _, path := range []string{"", filepath.Join(dir, "missing.csv"), dir} {
		_, err := New(logging.Discard()).Run(Request{Path: path, Table: "Users"})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "path %q: got %v", path, err)
		assert.Equal(t, "path", vErr.Field)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunPathCheckedBeforeTable(t *testing.T) {
	_, err := New(logging.Discard()).Run(Request{Path: "/does/not/exist.csv"})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "invalid file path", vErr.Message)
}

func TestRunLoadError(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{name: "empty csv", file: "empty.csv", content: "", wantErr: "no columns to parse"},
		{name: "ragged csv", file: "bad.csv", content: "a\n1,2\n", wantErr: "expected 1 fields"},
		{name: "unsupported", file: "notes.pdf", content: "%PDF", wantErr: "unsupported file format"},
		{name: "corrupt workbook", file: "broken.xlsx", content: "not a zip", wantErr: "xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeSource(t, tt.file, tt.content)

			_, err := New(logging.Discard()).Run(Request{Path: src, Table: "T"})
			var lErr *core.LoadError
			require.True(t, errors.As(err, &lErr), "got %v", err)
			assert.Equal(t, src, lErr.Path)
			assert.Contains(t, err.Error(), tt.wantErr)

			_, statErr := os.Stat(filepath.Join(filepath.Dir(src), "T_Insert.sql"))
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestRunWriteError(t *testing.T) {
	src := writeSource(t, "users.csv", "id\n1\n")
	out := filepath.Join(t.TempDir(), "missing-dir", "out.sql")

	_, err := New(logging.Discard()).Run(Request{Path: src, Table: "Users", OutputPath: out})
	var wErr *core.WriteError
	require.True(t, errors.As(err, &wErr), "got %v", err)
	assert.Equal(t, out, wErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuildDoesNotWrite(t *testing.T) {
	src := writeSource(t, "users.csv", "id\n1\n2\n")

	script, err := New(nil).Build(Request{Path: src, Table: "Users"})
	require.NoError(t, err)
	assert.Len(t, script.Statements, 2)

	_, statErr := os.Stat(filepath.Join(filepath.Dir(src), "Users_Insert.sql"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDestination(t *testing.T) {
	req := Request{Path: filepath.Join("data", "in.xlsx"), Table: " Users "}
	assert.Equal(t, filepath.Join("data", "Users_Insert.sql"), req.Destination())

	req.OutputDir = "out"
	assert.Equal(t, filepath.Join("out", "Users_Insert.sql"), req.Destination())

	req.OutputPath = "explicit.sql"
	assert.Equal(t, "explicit.sql", req.Destination())
}

func TestRunKeepsDigitsOfLongIntegers(t *testing.T) {
	src := writeSource(t, "ids.csv", "id,n\n12345678901234567890,1\n99999999999999999999,2\n")

	res, err := New(logging.Discard()).Run(Request{Path: src, Table: "Ids"})
	require.NoError(t, err)

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO Ids (id, n) VALUES ('12345678901234567890', 1);\n"+
		"INSERT INTO Ids (id, n) VALUES ('99999999999999999999', 2);", string(data))
}
