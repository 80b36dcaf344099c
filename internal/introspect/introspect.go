// Package introspect reads the current structure of INSERT target tables
// from a live MySQL, MariaDB or TiDB server, so a script can be checked
// against the database before any row is written.
package introspect

import (
	"errors"
	"strings"
)

// Dialect identifies the server family behind a MySQL protocol connection.
type Dialect string

const (
	DialectMySQL   Dialect = "mysql"
	DialectMariaDB Dialect = "mariadb"
	DialectTiDB    Dialect = "tidb"
)

// ErrTableNotFound is returned when the target table does not exist.
var ErrTableNotFound = errors.New("table not found")

// Server describes the connected database server.
type Server struct {
	Dialect Dialect
	Version string
}

// Column is one column of a target table.
type Column struct {
	Name          string
	Type          string
	Nullable      bool
	HasDefault    bool
	PrimaryKey    bool
	AutoIncrement bool
	Generated     bool
}

// Table is a target table with its columns in ordinal order.
type Table struct {
	Schema  string
	Name    string
	Columns []Column
}

// Column finds a column by name. MySQL column names are case-insensitive.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// RequiredColumns lists columns an INSERT must supply: NOT NULL, without a
// default, not auto-increment and not generated.
func (t *Table) RequiredColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if !c.Nullable && !c.HasDefault && !c.AutoIncrement && !c.Generated {
			names = append(names, c.Name)
		}
	}
	return names
}

// SplitName splits "schema.table" into its parts. A name without a dot
// refers to the connection's current database and yields an empty schema.
// Backtick quoting is removed.
func SplitName(name string) (schema, table string) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "."); i >= 0 {
		schema, table = name[:i], name[i+1:]
	} else {
		table = name
	}
	return strings.Trim(schema, "`"), strings.Trim(table, "`")
}
