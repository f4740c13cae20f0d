package nl2sql

import (
	"context"
	"strings"

	"github.com/querybot/querybot/internal/query"
)

type ValidationResult struct {
	Accepted   bool   `json:"accepted"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Validator plan-checks select statements against the live engine. Nothing
// is executed, so validation never changes data.
type Validator struct {
	planner query.Planner
}

func NewValidator(planner query.Planner) *Validator {
	return &Validator{planner: planner}
}

// Validate accepts every statement that does not start with select. Select
// statements are accepted when the engine can plan them; otherwise the
// engine message becomes the diagnostic.
func (v *Validator) Validate(ctx context.Context, statement string) ValidationResult {
	stripped := query.StripTrailingSemicolons(statement)
	if !strings.HasPrefix(strings.ToLower(stripped), "select") {
		return ValidationResult{Accepted: true}
	}
	if err := v.planner.Explain(ctx, stripped); err != nil {
		return ValidationResult{Accepted: false, Diagnostic: err.Error()}
	}
	return ValidationResult{Accepted: true}
}
