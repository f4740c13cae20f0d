package safety

import (
	"fmt"
	"regexp"
	"strings"
)

var limitPattern = regexp.MustCompile(`(?i)\blimit\b`)

func HasLimit(statement string) bool {
	return limitPattern.MatchString(statement)
}

// EnsureLimit appends " LIMIT n;" to a select statement that has no LIMIT
// clause. Trailing semicolons are dropped first. Any other statement is
// returned unchanged, so applying it twice gives the same text.
func EnsureLimit(statement string, limit int) string {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(statement)), "select") {
		return statement
	}
	if HasLimit(statement) {
		return statement
	}
	trimmed := strings.TrimSpace(statement)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return fmt.Sprintf("%s LIMIT %d;", trimmed, limit)
}
