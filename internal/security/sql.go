package security

import (
	"fmt"
	"strings"
)

// ValidateReadOnlyQuery reports whether stmt is a single read-only
// SELECT statement. It rejects multi-statement input and anything that
// does not start with SELECT or WITH.
func ValidateReadOnlyQuery(stmt string) error {
	trimmed := strings.TrimSpace(stmt)
	if trimmed == "" {
		return fmt.Errorf("empty query")
	}

	// One statement only. A trailing semicolon is tolerated.
	if strings.Contains(strings.TrimSuffix(trimmed, ";"), ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}

	lower := strings.ToLower(trimmed)
	first := firstWord(lower)

	switch first {
	case "select", "with", "explain", "show":
	default:
		return fmt.Errorf("only read-only queries are allowed, got %q statement", first)
	}

	// WITH ... INSERT/UPDATE/DELETE is a data-modifying CTE.
	if first == "with" {
		for _, kw := range []string{"insert", "update", "delete", "merge"} {
			if containsKeyword(lower, kw) {
				return fmt.Errorf("data-modifying statements inside WITH are not allowed")
			}
		}
	}

	return nil
}

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '(' {
			return s[:i]
		}
	}
	return s
}

// containsKeyword matches kw as a whole word in s.
func containsKeyword(s, kw string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], kw)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordByte(s[i-1])
		afterIdx := i + len(kw)
		after := afterIdx >= len(s) || !isWordByte(s[afterIdx])
		if before && after {
			return true
		}
		idx = i + len(kw)
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
