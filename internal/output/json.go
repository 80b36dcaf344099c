package output

import (
	"encoding/json"

	"xl2sql/internal/sqlgen"
)

type jsonFormatter struct{}

type scriptSummary struct {
	Rows       int `json:"rows"`
	Statements int `json:"statements"`
}

type scriptPayload struct {
	Format         string        `json:"format"`
	Table          string        `json:"table,omitempty"`
	IdentityInsert bool          `json:"identityInsert"`
	Summary        scriptSummary `json:"summary"`
	SQL            []string      `json:"sql,omitempty"`
}

func (jsonFormatter) FormatScript(s *sqlgen.Script) (string, error) {
	payload := scriptPayload{Format: string(FormatJSON)}
	if s != nil {
		payload.Table = s.Table
		payload.IdentityInsert = s.IdentityInsert
		payload.SQL = s.Statements
		payload.Summary = scriptSummary{
			Rows:       s.Rows,
			Statements: len(s.Statements),
		}
	}

	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
