// Package safety decides whether a statement changes data and makes sure
// read statements carry a row bound before they reach the engine.
package safety

import (
	"regexp"
	"strings"
)

var mutatingPattern = regexp.MustCompile(`(?i)^\s*(insert|update|delete|create|drop|alter|replace|truncate)\b`)

// Classification describes a statement as the guard sees it.
type Classification struct {
	Mutating bool   `json:"mutating"`
	Keyword  string `json:"keyword,omitempty"`
	Bounded  bool   `json:"bounded"`
}

// Classify is pure and total. Empty input is read-only.
func Classify(statement string) Classification {
	classification := Classification{Bounded: HasLimit(statement)}
	if match := mutatingPattern.FindStringSubmatch(statement); match != nil {
		classification.Mutating = true
		classification.Keyword = strings.ToLower(match[1])
	}
	return classification
}

func IsMutating(statement string) bool {
	return mutatingPattern.MatchString(statement)
}
