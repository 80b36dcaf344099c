package apply

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	parsermysql "github.com/pingcap/tidb/pkg/parser/mysql"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // required to register TiDB parser driver implementations
)

const statementIdentityInsert = "IDENTITY_INSERT"

var identityInsertRe = regexp.MustCompile(`(?i)^SET\s+IDENTITY_INSERT\s+(\S+)\s+(ON|OFF)\s*;?$`)

var ddlImplicitCommitReasons = map[string]string{
	"CREATE VIEW":      "CREATE VIEW causes an implicit commit in MySQL",
	"DROP VIEW":        "DROP VIEW causes an implicit commit in MySQL",
	"CREATE PROCEDURE": "CREATE PROCEDURE causes an implicit commit in MySQL",
	"DROP PROCEDURE":   "DROP PROCEDURE causes an implicit commit in MySQL",
	"CREATE TRIGGER":   "CREATE TRIGGER causes an implicit commit in MySQL",
	"DROP TRIGGER":     "DROP TRIGGER causes an implicit commit in MySQL",
}

// StatementAnalysis contains the results of analyzing a SQL statement.
type StatementAnalysis struct {
	StatementType     string
	Table             string
	Columns           []string
	IsDestructive     bool
	DestructiveReason string
	IsTransactionSafe bool
	TxUnsafeReason    string
	// Skip marks statements that MySQL cannot run and that are left out.
	Skip       bool
	SkipReason string
	Problems   []string
}

// StatementAnalyzer uses TiDB's AST parser for reliable SQL analysis.
type StatementAnalyzer struct {
	parser *parser.Parser
}

// NewStatementAnalyzer creates a new AST-based statement analyzer.
// Backslashes in string literals are read as ordinary characters, matching
// the session mode Connect sets on the server.
func NewStatementAnalyzer() *StatementAnalyzer {
	p := parser.New()
	p.SetSQLMode(parsermysql.ModeNoBackslashEscapes)
	return &StatementAnalyzer{
		parser: p,
	}
}

// AnalyzeStatement parses a single SQL statement and returns analysis results.
func (a *StatementAnalyzer) AnalyzeStatement(sql string) *StatementAnalysis {
	sql = strings.TrimSpace(sql)

	if m := identityInsertRe.FindStringSubmatch(sql); m != nil {
		return &StatementAnalysis{
			StatementType:     statementIdentityInsert,
			Table:             m[1],
			IsTransactionSafe: true,
			Skip:              true,
			SkipReason:        "SET IDENTITY_INSERT is SQL Server syntax; MySQL accepts explicit AUTO_INCREMENT values without it",
		}
	}

	stmtNodes, _, err := a.parser.Parse(sql, "", "")
	if err != nil {
		analysis := &StatementAnalysis{
			StatementType:     "UNPARSEABLE",
			IsTransactionSafe: true,
			Problems:          []string{fmt.Sprintf("statement could not be parsed as MySQL: %v", err)},
		}
		a.analyzeOtherStatement(analysis, sql)
		return analysis
	}

	if len(stmtNodes) == 0 {
		return &StatementAnalysis{IsTransactionSafe: true}
	}

	return a.analyzeNode(stmtNodes[0], sql)
}

// AnalyzeStatements analyzes multiple SQL statements and returns a PreflightResult.
func (a *StatementAnalyzer) AnalyzeStatements(statements []string, unsafeAllowed bool) *PreflightResult {
	result := &PreflightResult{
		IsTransactional: true,
		TableColumns:    make(map[string][]string),
	}

	seenTables := make(map[string]bool)
	for i, stmt := range statements {
		analysis := a.AnalyzeStatement(stmt)

		if analysis.Table != "" && !seenTables[analysis.Table] && analysis.StatementType == "INSERT" {
			seenTables[analysis.Table] = true
			result.Tables = append(result.Tables, analysis.Table)
		}
		if analysis.StatementType == "INSERT" && analysis.Table != "" {
			result.TableColumns[analysis.Table] = mergeColumns(result.TableColumns[analysis.Table], analysis.Columns)
		}
		if analysis.Skip {
			result.Skipped = append(result.Skipped, i)
			result.Warnings = append(result.Warnings, Warning{
				Level:   WarnCaution,
				Message: "Skipped: " + analysis.SkipReason,
				SQL:     stmt,
			})
			continue
		}

		a.addProblems(result, analysis, stmt)
		a.addDestructiveWarning(result, analysis, stmt, unsafeAllowed)
		a.addTransactionSafety(result, analysis, stmt)
	}

	return result
}

func mergeColumns(seen, columns []string) []string {
	for _, c := range columns {
		if !containsFold(seen, c) {
			seen = append(seen, c)
		}
	}
	return seen
}

func (a *StatementAnalyzer) addProblems(result *PreflightResult, analysis *StatementAnalysis, stmt string) {
	level := WarnCaution
	if analysis.StatementType == "INSERT" || analysis.StatementType == "UNPARSEABLE" {
		level = WarnDanger
	}
	for _, p := range analysis.Problems {
		result.Warnings = append(result.Warnings, Warning{
			Level:   level,
			Message: p,
			SQL:     stmt,
		})
	}
}

func (a *StatementAnalyzer) addDestructiveWarning(result *PreflightResult, analysis *StatementAnalysis, stmt string, unsafeAllowed bool) {
	if !analysis.IsDestructive {
		return
	}
	msg := analysis.DestructiveReason
	if !unsafeAllowed {
		msg = fmt.Sprintf("%s (requires --unsafe flag)", msg)
	}
	result.Warnings = append(result.Warnings, Warning{
		Level:   WarnDanger,
		Message: msg,
		SQL:     stmt,
	})
}

func (a *StatementAnalyzer) addTransactionSafety(result *PreflightResult, analysis *StatementAnalysis, stmt string) {
	if analysis.IsTransactionSafe {
		return
	}
	result.IsTransactional = false
	reason := analysis.TxUnsafeReason
	if reason != "" {
		reason = fmt.Sprintf("%s: %s", reason, stmt)
	} else {
		reason = fmt.Sprintf("DDL statement causes implicit commit: %s", stmt)
	}
	result.NonTxReasons = append(result.NonTxReasons, reason)
}

func (a *StatementAnalyzer) analyzeNode(node ast.StmtNode, originalSQL string) *StatementAnalysis {
	analysis := &StatementAnalysis{
		IsTransactionSafe: true,
	}

	switch stmt := node.(type) {
	case *ast.InsertStmt:
		a.analyzeInsert(stmt, analysis)
	case *ast.DeleteStmt:
		analysis.StatementType = "DELETE"
		analysis.IsDestructive = true
		analysis.DestructiveReason = "DELETE will remove rows from the table"
	case *ast.UpdateStmt:
		analysis.StatementType = "UPDATE"
	case *ast.SelectStmt:
		analysis.StatementType = "SELECT"
	case *ast.TruncateTableStmt:
		analysis.StatementType = "TRUNCATE TABLE"
		analysis.IsDestructive = true
		analysis.DestructiveReason = "TRUNCATE TABLE will delete all rows from the table"
		analysis.IsTransactionSafe = false
		analysis.TxUnsafeReason = "TRUNCATE TABLE causes an implicit commit in MySQL"
	case *ast.DropTableStmt:
		analysis.StatementType = "DROP TABLE"
		analysis.IsDestructive = true
		analysis.DestructiveReason = "DROP TABLE will permanently delete the table and all its data"
		analysis.IsTransactionSafe = false
		analysis.TxUnsafeReason = "DROP TABLE causes an implicit commit in MySQL"
	case *ast.DropDatabaseStmt:
		analysis.StatementType = "DROP DATABASE"
		analysis.IsDestructive = true
		analysis.DestructiveReason = "DROP DATABASE will permanently delete the entire database"
		analysis.IsTransactionSafe = false
		analysis.TxUnsafeReason = "DROP DATABASE causes an implicit commit in MySQL"
	case *ast.CreateTableStmt:
		analysis.StatementType = "CREATE TABLE"
		analysis.IsTransactionSafe = false
		analysis.TxUnsafeReason = "CREATE TABLE causes an implicit commit in MySQL"
	case *ast.AlterTableStmt:
		analysis.StatementType = "ALTER TABLE"
		analysis.IsTransactionSafe = false
		analysis.TxUnsafeReason = "ALTER TABLE causes an implicit commit in MySQL"
	default:
		a.analyzeOtherStatement(analysis, originalSQL)
	}

	return analysis
}

func (a *StatementAnalyzer) analyzeInsert(stmt *ast.InsertStmt, analysis *StatementAnalysis) {
	analysis.StatementType = "INSERT"
	analysis.Table = insertTarget(stmt)

	if len(stmt.Columns) == 0 {
		return
	}
	for _, col := range stmt.Columns {
		analysis.Columns = append(analysis.Columns, col.Name.O)
	}
	for i, list := range stmt.Lists {
		if len(list) != len(stmt.Columns) {
			analysis.Problems = append(analysis.Problems, fmt.Sprintf(
				"INSERT row %d has %d values for %d columns", i+1, len(list), len(stmt.Columns)))
		}
	}
}

func insertTarget(stmt *ast.InsertStmt) string {
	if stmt.Table == nil || stmt.Table.TableRefs == nil {
		return ""
	}
	src, ok := stmt.Table.TableRefs.Left.(*ast.TableSource)
	if !ok {
		return ""
	}
	name, ok := src.Source.(*ast.TableName)
	if !ok {
		return ""
	}
	if name.Schema.O != "" {
		return name.Schema.O + "." + name.Name.O
	}
	return name.Name.O
}

func (a *StatementAnalyzer) analyzeOtherStatement(analysis *StatementAnalysis, originalSQL string) {
	if analysis.StatementType == "" {
		analysis.StatementType = "OTHER"
	}
	upper := strings.ToUpper(strings.TrimSpace(originalSQL))

	for keyword, txReason := range ddlImplicitCommitReasons {
		if strings.HasPrefix(upper, keyword) {
			analysis.StatementType = keyword
			analysis.IsTransactionSafe = false
			analysis.TxUnsafeReason = txReason
			return
		}
	}

	if strings.HasPrefix(upper, "CREATE ") ||
		strings.HasPrefix(upper, "DROP ") ||
		strings.HasPrefix(upper, "ALTER ") {
		analysis.IsTransactionSafe = false
		analysis.TxUnsafeReason = "DDL statement causes implicit commit"
	}
}
