package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateReadOnlyQuery(t *testing.T) {
	tests := []struct {
		name    string
		stmt    string
		wantErr bool
	}{
		{"plain select", "SELECT id, title FROM listing", false},
		{"select with trailing semicolon", "select * from listing;", false},
		{"cte", "WITH recent AS (SELECT * FROM listing) SELECT * FROM recent", false},
		{"explain", "EXPLAIN SELECT count(*) FROM listing", false},
		{"show", "SHOW server_version", false},
		{"leading whitespace", "\n\t SELECT 1", false},
		{"empty", "   ", true},
		{"insert", "INSERT INTO listing (title) VALUES ('x')", true},
		{"update", "UPDATE listing SET price = 0", true},
		{"delete", "DELETE FROM listing", true},
		{"drop", "DROP TABLE listing", true},
		{"stacked statements", "SELECT 1; DROP TABLE listing", true},
		{"data-modifying cte", "WITH x AS (DELETE FROM listing RETURNING *) SELECT * FROM x", true},
		{"set", "SET ROLE admin", true},
		{"copy", "COPY listing TO '/tmp/out'", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReadOnlyQuery(tt.stmt)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateReadOnlyQuery_ColumnNamedDelete(t *testing.T) {
	// Identifiers containing a write keyword as a substring are fine.
	err := ValidateReadOnlyQuery("WITH d AS (SELECT deleted_at FROM listing) SELECT * FROM d")
	assert.NoError(t, err)
}
