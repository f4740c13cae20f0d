package nl2sql

import "strings"

var dialectTags = map[string]struct{}{
	"sql":        {},
	"sqlite":     {},
	"mysql":      {},
	"postgresql": {},
	"postgres":   {},
	"duckdb":     {},
}

// CleanStatement strips surrounding whitespace and backticks from model output
// and drops a leading line that only names a dialect, as left behind by a
// fenced code block.
func CleanStatement(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimSpace(strings.Trim(text, "`"))

	firstLine, rest, found := strings.Cut(text, "\n")
	if _, ok := dialectTags[strings.ToLower(strings.TrimSpace(firstLine))]; ok {
		if !found {
			return ""
		}
		text = rest
	}
	return strings.TrimSpace(text)
}
