package output

import (
	"strings"

	"xl2sql/internal/sqlgen"
)

type sqlFormatter struct{}

// FormatScript returns the script text followed by a newline.
func (sqlFormatter) FormatScript(s *sqlgen.Script) (string, error) {
	if s == nil || len(s.Statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	if _, err := s.WriteTo(&sb); err != nil {
		return "", err
	}
	sb.WriteByte('\n')
	return sb.String(), nil
}
