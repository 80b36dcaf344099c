package apply

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"xl2sql/internal/core"
	"xl2sql/internal/introspect"
	"xl2sql/internal/sqlgen"
)

type testMySQLContainer struct {
	container *mysql.MySQLContainer
	dsn       string
	db        *sql.DB
}

func setupMySQL(t *testing.T) *testMySQLContainer {
	t.Helper()
	ctx := context.Background()

	mysqlContainer, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(mysqlContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := mysqlContainer.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err, "failed to get connection string")

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err, "failed to open direct DB connection")
	require.NoError(t, db.PingContext(ctx), "failed to ping database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close db: %v", err)
		}
	})

	return &testMySQLContainer{container: mysqlContainer, dsn: dsn, db: db}
}

func TestApplyGeneratedScriptIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupMySQL(t)
	ctx := context.Background()

	_, err := tc.db.ExecContext(ctx, `CREATE TABLE People (
		id INT PRIMARY KEY,
		name VARCHAR(64) NULL,
		active TINYINT NULL,
		joined DATETIME NULL
	)`)
	require.NoError(t, err)

	ds := core.NewDataset([]string{"id", "name", "active", "joined"})
	require.NoError(t, ds.AddRow(core.Row{core.Int(1), core.String("O'Brien"), core.Bool(true), core.String("2024-03-01 08:30:00")}))
	require.NoError(t, ds.AddRow(core.Row{core.Int(2), core.Null(), core.Bool(false), core.Null()}))

	script, err := sqlgen.Generate(ds, sqlgen.Options{Table: "People", IdentityInsert: true})
	require.NoError(t, err)

	t.Run("transactional apply", func(t *testing.T) {
		var buf bytes.Buffer
		applier := NewApplier(Options{DSN: tc.dsn, Transaction: true, Out: &buf})
		require.NoError(t, applier.Connect(ctx))
		defer func() { assert.NoError(t, applier.Close()) }()

		statements := applier.ParseStatements(script.String())
		require.Len(t, statements, 4)

		preflight := applier.PreflightChecks(statements, false)
		require.NoError(t, applier.Apply(ctx, statements, preflight))
		assert.Contains(t, buf.String(), "Connected to mysql 8.0")
		assert.Contains(t, buf.String(), "Successfully applied 2 statements")

		var name string
		require.NoError(t, tc.db.QueryRowContext(ctx, "SELECT name FROM People WHERE id = 1").Scan(&name))
		assert.Equal(t, "O'Brien", name)

		var count int
		require.NoError(t, tc.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM People WHERE active = 0 AND name IS NULL").Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("failed statement rolls back", func(t *testing.T) {
		applier := NewApplier(Options{DSN: tc.dsn, Transaction: true})
		require.NoError(t, applier.Connect(ctx))
		defer func() { assert.NoError(t, applier.Close()) }()

		statements := []string{
			"INSERT INTO People (id, name) VALUES (10, 'new');",
			"INSERT INTO People (id, name) VALUES (1, 'duplicate');",
		}
		err := applier.Apply(ctx, statements, applier.PreflightChecks(statements, false))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rolled back")

		var count int
		require.NoError(t, tc.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM People WHERE id = 10").Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("unknown column is rejected before execution", func(t *testing.T) {
		applier := NewApplier(Options{DSN: tc.dsn, Transaction: true})
		require.NoError(t, applier.Connect(ctx))
		defer func() { assert.NoError(t, applier.Close()) }()

		statements := []string{"INSERT INTO People (id, nickname) VALUES (20, 'x');"}
		err := applier.Apply(ctx, statements, applier.PreflightChecks(statements, false))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no column(s) named nickname")
	})

	t.Run("missing table is rejected", func(t *testing.T) {
		applier := NewApplier(Options{DSN: tc.dsn, Transaction: true})
		require.NoError(t, applier.Connect(ctx))
		defer func() { assert.NoError(t, applier.Close()) }()

		statements := []string{"INSERT INTO Ghosts (id) VALUES (1);"}
		err := applier.Apply(ctx, statements, applier.PreflightChecks(statements, false))
		require.Error(t, err)
		assert.ErrorIs(t, err, introspect.ErrTableNotFound)
	})

	t.Run("backslashes are stored as written", func(t *testing.T) {
		cells := []string{`back\slash`, `a\nb`, `C:\dir\`}
		ds := core.NewDataset([]string{"id", "name"})
		for i, cell := range cells {
			require.NoError(t, ds.AddRow(core.Row{core.Int(int64(30 + i)), core.String(cell)}))
		}
		script, err := sqlgen.Generate(ds, sqlgen.Options{Table: "People"})
		require.NoError(t, err)

		var buf bytes.Buffer
		applier := NewApplier(Options{DSN: tc.dsn, Transaction: true, Out: &buf})
		require.NoError(t, applier.Connect(ctx))
		defer func() { assert.NoError(t, applier.Close()) }()

		var mode string
		require.NoError(t, applier.db.QueryRowContext(ctx, "SELECT @@SESSION.sql_mode").Scan(&mode))
		assert.Contains(t, mode, "NO_BACKSLASH_ESCAPES")

		statements := applier.ParseStatements(script.String())
		require.Len(t, statements, len(cells))
		preflight := applier.PreflightChecks(statements, false)
		assert.Empty(t, preflight.Warnings)
		require.NoError(t, applier.Apply(ctx, statements, preflight))

		for i, cell := range cells {
			var name string
			require.NoError(t, tc.db.QueryRowContext(ctx, "SELECT name FROM People WHERE id = ?", 30+i).Scan(&name))
			assert.Equal(t, cell, name)
		}
	})

	t.Run("invalid DSN fails", func(t *testing.T) {
		applier := NewApplier(Options{DSN: "invalid:user@tcp(127.0.0.1:1)/nope"})
		assert.Error(t, applier.Connect(ctx))
		assert.NoError(t, applier.Close())
	})
}
