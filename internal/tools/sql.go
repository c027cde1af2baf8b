package tools

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/firebase/genkit/go/ai"

	"github.com/steelhand/steelhand/internal/security"
)

const (
	maxQueryRows    = 100
	queryTimeLimit  = 10 * time.Second
	maxCellChars    = 500
)

// SQLQueryInput is the sqlQuery tool input.
type SQLQueryInput struct {
	Query string `json:"query" jsonschema_description:"A single read-only SELECT statement"`
}

// SQLQueryOutput is the sqlQuery tool output. Rows are maps keyed by
// column name with values rendered as strings.
type SQLQueryOutput struct {
	Columns   []string            `json:"columns,omitempty"`
	Rows      []map[string]string `json:"rows"`
	RowCount  int                 `json:"row_count"`
	Truncated bool                `json:"truncated,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// SQLQuery runs a read-only query against the marketplace database.
// Statements that are not plain SELECTs are refused before execution.
func (k *Kit) SQLQuery(ctx *ai.ToolContext, input SQLQueryInput) (SQLQueryOutput, error) {
	out := SQLQueryOutput{Rows: []map[string]string{}}

	if err := security.ValidateReadOnlyQuery(input.Query); err != nil {
		k.logger.Warn("sqlQuery rejected", "error", err)
		out.Error = err.Error()
		return out, nil
	}

	k.logger.Info("sqlQuery called", "query", input.Query)

	qctx, cancel := context.WithTimeout(ctx, queryTimeLimit)
	defer cancel()

	rows, err := k.db.Query(qctx, input.Query)
	if err != nil {
		out.Error = fmt.Sprintf("query failed: %v", err)
		return out, nil
	}
	defer rows.Close()

	for _, fd := range rows.FieldDescriptions() {
		out.Columns = append(out.Columns, string(fd.Name))
	}

	for rows.Next() {
		if len(out.Rows) >= maxQueryRows {
			out.Truncated = true
			break
		}
		values, err := rows.Values()
		if err != nil {
			out.Error = fmt.Sprintf("read row: %v", err)
			return out, nil
		}
		row := make(map[string]string, len(values))
		for i, v := range values {
			row[out.Columns[i]] = renderCell(v)
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		out.Error = fmt.Sprintf("iterate rows: %v", err)
		return out, nil
	}

	out.RowCount = len(out.Rows)
	k.logger.Info("sqlQuery done", "row_count", out.RowCount, "truncated", out.Truncated)
	return out, nil
}

func renderCell(v any) string {
	if v == nil {
		return ""
	}
	s := fmt.Sprintf("%v", v)
	if len(s) > maxCellChars {
		// Never cut in the middle of a multi-byte rune.
		cut := maxCellChars
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "…"
	}
	return s
}
