package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xl2sql/internal/core"
	"xl2sql/internal/sqlgen"
)

func script(t *testing.T, rows int, identity bool) *sqlgen.Script {
	t.Helper()
	ds := core.NewDataset([]string{"id", "name"})
	for i := range rows {
		require.NoError(t, ds.AddRow([]core.Value{core.Int(int64(i + 1)), core.String("n")}))
	}
	s, err := sqlgen.Generate(ds, sqlgen.Options{Table: "Users", IdentityInsert: identity})
	require.NoError(t, err)
	return s
}

func TestNewFormatter(t *testing.T) {
	for _, name := range []string{"", "sql", " SQL ", "json", "summary"} {
		f, err := NewFormatter(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := NewFormatter("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format: xml")
}

func TestSQLFormatter(t *testing.T) {
	out, err := sqlFormatter{}.FormatScript(script(t, 1, false))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO Users (id, name) VALUES (1, 'n');\n", out)

	full := script(t, 2, true)
	out, err = sqlFormatter{}.FormatScript(full)
	require.NoError(t, err)
	assert.Equal(t, full.String()+"\n", out)
	assert.Equal(t, 4, strings.Count(out, "\n"))

	out, err = sqlFormatter{}.FormatScript(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestJSONFormatter(t *testing.T) {
	out, err := jsonFormatter{}.FormatScript(script(t, 2, true))
	require.NoError(t, err)

	var payload scriptPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "json", payload.Format)
	assert.Equal(t, "Users", payload.Table)
	assert.True(t, payload.IdentityInsert)
	assert.Equal(t, 2, payload.Summary.Rows)
	assert.Equal(t, 4, payload.Summary.Statements)
	require.Len(t, payload.SQL, 4)
	assert.Equal(t, "SET IDENTITY_INSERT Users ON;", payload.SQL[0])
}

func TestJSONFormatterNilScript(t *testing.T) {
	out, err := jsonFormatter{}.FormatScript(nil)
	require.NoError(t, err)
	assert.Contains(t, out, `"statements": 0`)
}

func TestSummaryFormatter(t *testing.T) {
	out, err := summaryFormatter{}.FormatScript(script(t, 5, true))
	require.NoError(t, err)

	assert.Contains(t, out, "Table:           Users")
	assert.Contains(t, out, "Rows:            5")
	assert.Contains(t, out, "Statements:      7")
	assert.Contains(t, out, "Identity insert: on")
	assert.Contains(t, out, "INSERT INTO Users (id, name) VALUES (3, 'n');")
	assert.NotContains(t, out, "VALUES (4, 'n')")
	assert.Contains(t, out, "... 2 more")
}

func TestSummaryFormatterNoRows(t *testing.T) {
	out, err := summaryFormatter{}.FormatScript(script(t, 0, false))
	require.NoError(t, err)
	assert.Contains(t, out, "No rows to insert.")
	assert.Contains(t, out, "Identity insert: off")
}
