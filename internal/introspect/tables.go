package introspect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LoadTable reads the structure of the named table. The name may be
// qualified as "schema.table"; otherwise the current database is used.
func LoadTable(ctx context.Context, db *sql.DB, name string) (*Table, error) {
	schema, table := SplitName(name)
	if table == "" {
		return nil, fmt.Errorf("empty table name")
	}

	t := &Table{Name: table}
	var err error
	if schema == "" {
		err = db.QueryRowContext(ctx, `
			SELECT table_schema, table_name
			FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_name = ?
		`, table).Scan(&t.Schema, &t.Name)
	} else {
		err = db.QueryRowContext(ctx, `
			SELECT table_schema, table_name
			FROM information_schema.tables
			WHERE table_schema = ? AND table_name = ?
		`, schema, table).Scan(&t.Schema, &t.Name)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up table %s: %w", name, err)
	}

	if err := introspectColumns(ctx, db, t); err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	return t, nil
}
