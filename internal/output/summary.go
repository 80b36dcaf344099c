package output

import (
	"fmt"
	"strings"

	"xl2sql/internal/sqlgen"
)

const previewStatements = 3

type summaryFormatter struct{}

// FormatScript formats a script as a compact summary.
// Example output:
//
//	Insert Script Summary
//	=====================
//
//	Table:           Users
//	Rows:            2
//	Statements:      4
//	Identity insert: on
func (summaryFormatter) FormatScript(s *sqlgen.Script) (string, error) {
	if s == nil {
		return "No statements generated.\n", nil
	}

	var sb strings.Builder
	sb.WriteString("Insert Script Summary\n")
	sb.WriteString("=====================\n\n")

	identity := "off"
	if s.IdentityInsert {
		identity = "on"
	}
	fmt.Fprintf(&sb, "Table:           %s\n", s.Table)
	fmt.Fprintf(&sb, "Rows:            %d\n", s.Rows)
	fmt.Fprintf(&sb, "Statements:      %d\n", len(s.Statements))
	fmt.Fprintf(&sb, "Identity insert: %s\n", identity)

	inserts := s.InsertStatements()
	if len(inserts) == 0 {
		sb.WriteString("\nNo rows to insert.\n")
		return sb.String(), nil
	}

	sb.WriteString("\nFirst statements:\n")
	for i, stmt := range inserts {
		if i == previewStatements {
			fmt.Fprintf(&sb, "  ... %d more\n", len(inserts)-previewStatements)
			break
		}
		sb.WriteString("  " + stmt + "\n")
	}
	return sb.String(), nil
}
