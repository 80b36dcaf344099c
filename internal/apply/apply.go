// Package apply runs a generated insert script against a MySQL database.
// Statements are analyzed before execution so destructive or malformed
// statements stop the run, and SQL Server only toggles are skipped.
package apply

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-sql-driver/mysql"

	"xl2sql/internal/introspect"
)

// PreflightResult contains a list of warnings, errors, and transactionality info about a script.
type PreflightResult struct {
	Warnings        []Warning
	IsTransactional bool
	NonTxReasons    []string
	// Skipped holds indexes of statements that will not be executed.
	Skipped []int
	// Tables lists INSERT targets in first-seen order.
	Tables []string
	// TableColumns holds the columns named by INSERTs, per target table.
	TableColumns map[string][]string
}

// Warning contains a Level of a warning, message, and actual SQL from the script.
type Warning struct {
	Level   WarningLevel
	Message string
	SQL     string
}

// WarningLevel is a const that is expandable for later and contains different levels of danger.
type WarningLevel string

const (
	WarnCaution WarningLevel = "CAUTION"
	WarnDanger  WarningLevel = "DANGER"
)

// Options struct contains all setting available for user to choose during apply command.
type Options struct {
	DSN                   string
	FilePath              string
	DryRun                bool
	Transaction           bool
	AllowNonTransactional bool
	Unsafe                bool
	Out                   io.Writer
}

type jsonScript struct {
	Format string   `json:"format"`
	SQL    []string `json:"sql,omitempty"`
}

// Applier holds the connection and options for one apply run.
type Applier struct {
	db       *sql.DB
	options  Options
	analyzer *StatementAnalyzer
	out      io.Writer
}

// NewApplier returns a pointer to Applier for user use, with provided options.
func NewApplier(options Options) *Applier {
	out := options.Out
	if out == nil {
		out = io.Discard
	}
	return &Applier{
		options:  options,
		analyzer: NewStatementAnalyzer(),
		out:      out,
	}
}

func (a *Applier) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *Applier) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

// Connect establishes a connection with a user database and pings it to test a connection.
func (a *Applier) Connect(ctx context.Context) error {
	cfg, err := sessionConfig(a.options.DSN)
	if err != nil {
		return err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	db := sql.OpenDB(connector)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			return fmt.Errorf("failed to ping database: %v; additionally failed to close connection: %w", pingErr, closeErr)
		}
		return fmt.Errorf("failed to ping database: %w", pingErr)
	}

	a.db = db

	if server, err := introspect.DetectServer(ctx, db); err == nil {
		a.printf("Connected to %s %s\n", server.Dialect, server.Version)
	}
	return nil
}

// sessionConfig parses dsn and adds NO_BACKSLASH_ESCAPES to the session
// sql_mode. Generated literals only double single quotes, so a backslash
// in a cell must reach the table unchanged.
func sessionConfig(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	if cfg.Params == nil {
		cfg.Params = make(map[string]string)
	}
	mode := "@@SESSION.sql_mode"
	if v, ok := cfg.Params["sql_mode"]; ok {
		mode = "'" + strings.Trim(v, "'\"") + "'"
	}
	cfg.Params["sql_mode"] = fmt.Sprintf("CONCAT(%s, ',NO_BACKSLASH_ESCAPES')", mode)
	return cfg, nil
}

// Close closes the database connection. Calling it more than once is safe.
func (a *Applier) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// ParseStatements splits script content into statements. JSON output of
// the preview command is accepted as well as plain SQL.
func (a *Applier) ParseStatements(content string) []string {
	content = strings.TrimSpace(content)

	var script jsonScript
	if err := json.Unmarshal([]byte(content), &script); err == nil && script.Format == "json" {
		var statements []string
		for _, stmt := range script.SQL {
			if stmt = strings.TrimSpace(stmt); stmt != "" {
				statements = append(statements, stmt)
			}
		}
		return statements
	}

	return splitStatements(content)
}

// splitStatements splits on semicolons outside single-quoted literals and
// drops "--" comment lines.
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	inQuote := false
	atLineStart := true

	for i := 0; i < len(content); i++ {
		c := content[i]

		if !inQuote && atLineStart {
			rest := strings.TrimLeft(content[i:], " \t")
			if strings.HasPrefix(rest, "--") {
				end := strings.IndexByte(content[i:], '\n')
				if end < 0 {
					break
				}
				i += end
				continue
			}
		}
		atLineStart = c == '\n'

		current.WriteByte(c)
		switch {
		case c == '\'':
			inQuote = !inQuote
		case c == ';' && !inQuote:
			if stmt := strings.TrimSpace(current.String()); stmt != ";" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}
	return statements
}

// PreflightChecks uses the AST-based analyzer to detect dangerous operations
// and transaction safety issues in the provided SQL statements.
func (a *Applier) PreflightChecks(statements []string, unsafe bool) *PreflightResult {
	return a.analyzer.AnalyzeStatements(statements, unsafe)
}

// Apply runs the dry-run report or executes the statements that passed
// preflight, in a transaction when requested and possible.
func (a *Applier) Apply(ctx context.Context, statements []string, preflight *PreflightResult) error {
	if a.options.DryRun {
		return a.dryRun(statements, preflight)
	}

	if HasDestructiveOperations(preflight) && !a.options.Unsafe {
		return fmt.Errorf("preflight checks failed: dangerous statements detected; use --unsafe to proceed")
	}

	if a.options.Transaction && !preflight.IsTransactional {
		if !a.options.AllowNonTransactional {
			return fmt.Errorf("script contains non-transactional DDL statements; use --allow-non-transactional to proceed")
		}
	}

	executable := ExecutableStatements(statements, preflight)
	if len(executable) == 0 {
		a.println("No executable statements")
		return nil
	}
	if a.db == nil {
		return fmt.Errorf("not connected to a database")
	}
	if err := a.CheckTargets(ctx, preflight); err != nil {
		return err
	}

	if a.options.Transaction && preflight.IsTransactional {
		return a.applyWithTransaction(ctx, executable)
	}

	return a.applyWithoutTransaction(ctx, executable)
}

// CheckTargets verifies against the live database that every INSERT target
// table exists and has the columns the script names. NOT NULL columns
// without a default that the script never sets are reported as cautions.
func (a *Applier) CheckTargets(ctx context.Context, preflight *PreflightResult) error {
	if a.db == nil {
		return fmt.Errorf("not connected to a database")
	}

	for _, name := range preflight.Tables {
		table, err := introspect.LoadTable(ctx, a.db, name)
		if err != nil {
			return err
		}

		used := preflight.TableColumns[name]
		var missing []string
		for _, col := range used {
			if _, ok := table.Column(col); !ok {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("table %s has no column(s) named %s", name, strings.Join(missing, ", "))
		}

		for _, required := range table.RequiredColumns() {
			if !containsFold(used, required) {
				a.printf("[%s] column %s.%s is NOT NULL without a default and is not set by the script\n",
					WarnCaution, name, required)
			}
		}
	}
	return nil
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// ExecutableStatements returns statements not marked as skipped by preflight.
func ExecutableStatements(statements []string, preflight *PreflightResult) []string {
	if preflight == nil || len(preflight.Skipped) == 0 {
		return statements
	}
	skipped := make(map[int]bool, len(preflight.Skipped))
	for _, i := range preflight.Skipped {
		skipped[i] = true
	}
	out := make([]string, 0, len(statements)-len(preflight.Skipped))
	for i, stmt := range statements {
		if !skipped[i] {
			out = append(out, stmt)
		}
	}
	return out
}

func truncateSQL(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if len(stmt) > 80 {
		return stmt[:77] + "..."
	}
	return stmt
}

func (a *Applier) dryRun(statements []string, preflight *PreflightResult) error {
	a.println("=== DRY RUN MODE ===")

	a.println("--- Preflight Checks ---")
	if len(preflight.Warnings) == 0 {
		a.println("No warnings")
	} else {
		for _, w := range preflight.Warnings {
			a.printf("[%s] %s\n", w.Level, w.Message)
			if w.SQL != "" {
				a.printf("    SQL: %s\n", truncateSQL(w.SQL))
			}
		}
	}

	if len(preflight.Tables) > 0 {
		a.printf("Target tables: %s\n", strings.Join(preflight.Tables, ", "))
	}

	a.println("--- Transaction Safety ---")
	if preflight.IsTransactional {
		a.println("All statements are transaction-safe")
	} else {
		a.println("Script is NOT transaction-safe")
		for _, reason := range preflight.NonTxReasons {
			a.printf("  - %s\n", reason)
		}
	}

	a.println("--- Statements to Execute ---")
	for i, stmt := range ExecutableStatements(statements, preflight) {
		a.printf("%d. %s\n", i+1, stmt)
	}

	if HasDestructiveOperations(preflight) && !a.options.Unsafe {
		return fmt.Errorf("preflight checks failed: dangerous statements detected without --unsafe flag")
	}

	if a.options.Transaction && !preflight.IsTransactional && !a.options.AllowNonTransactional {
		return fmt.Errorf("preflight checks failed: non-transactional DDL detected without --allow-non-transactional flag")
	}

	a.println("=== DRY RUN COMPLETE ===")
	a.println("All preflight checks passed. Run without --dry-run to apply.")
	return nil
}

func (a *Applier) applyWithTransaction(ctx context.Context, statements []string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for i, stmt := range statements {
		a.printf("Executing statement %d/%d...\n", i+1, len(statements))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("execute failed: %w; rollback also failed: %v", err, rbErr)
			}
			return fmt.Errorf("execute failed (rolled back): %w\n  Statement: %s", err, truncateSQL(stmt))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	a.printf("Successfully applied %d statements\n", len(statements))
	return nil
}

func (a *Applier) applyWithoutTransaction(ctx context.Context, statements []string) error {
	a.println("Applying script without transaction wrapper")

	successCount := 0
	for i, stmt := range statements {
		a.printf("Executing statement %d/%d...\n", i+1, len(statements))
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d failed: %w\n  Statement: %s\n  %d statements were already applied and cannot be automatically rolled back",
				i+1, err, truncateSQL(stmt), successCount)
		}
		successCount++
	}

	a.printf("Successfully applied %d statements\n", len(statements))
	return nil
}

// HasDestructiveOperations reports whether preflight found a DANGER warning.
func HasDestructiveOperations(preflight *PreflightResult) bool {
	if preflight == nil {
		return false
	}
	for _, w := range preflight.Warnings {
		if w.Level == WarnDanger {
			return true
		}
	}
	return false
}
