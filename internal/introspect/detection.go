package introspect

import (
	"context"
	"database/sql"
	"strings"
)

// DetectServer reports which server family and version db is connected to.
func DetectServer(ctx context.Context, db *sql.DB) (Server, error) {
	var varName, comment string

	err := db.QueryRowContext(ctx, "SHOW VARIABLES LIKE 'version_comment'").Scan(&varName, &comment)
	if err != nil {
		return Server{}, err
	}

	comment = strings.ToLower(comment)
	version := getVersion(ctx, db)

	switch {
	case strings.Contains(comment, "mariadb"), strings.Contains(strings.ToLower(version), "mariadb"):
		return Server{Dialect: DialectMariaDB, Version: trimVersion(version)}, nil
	case strings.Contains(comment, "tidb"):
		return Server{Dialect: DialectTiDB, Version: trimVersion(version)}, nil
	default:
		return Server{Dialect: DialectMySQL, Version: trimVersion(version)}, nil
	}
}

func getVersion(ctx context.Context, db *sql.DB) string {
	var version string
	_ = db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version)
	return version
}

func trimVersion(version string) string {
	if idx := strings.Index(version, "-"); idx > 0 {
		version = version[:idx]
	}
	return version
}
