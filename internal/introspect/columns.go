package introspect

import (
	"context"
	"database/sql"
	"strings"
)

func introspectColumns(ctx context.Context, db *sql.DB, t *Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable,
			c.column_default,
			c.extra,
			c.column_key,
			c.generation_expression
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`, t.Schema, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, colType, nullable, defaultVal, extra, colKey, genExpr sql.NullString
		if err := rows.Scan(&name, &colType, &nullable, &defaultVal, &extra, &colKey, &genExpr); err != nil {
			return err
		}

		t.Columns = append(t.Columns, Column{
			Name:          name.String,
			Type:          colType.String,
			Nullable:      nullable.String == "YES",
			HasDefault:    defaultVal.Valid,
			PrimaryKey:    colKey.String == "PRI",
			AutoIncrement: strings.Contains(strings.ToLower(extra.String), "auto_increment"),
			Generated:     genExpr.String != "",
		})
	}

	return rows.Err()
}
