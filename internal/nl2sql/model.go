// Package nl2sql turns a natural-language request into a single statement
// that has been checked against the live schema of the target engine.
package nl2sql

import "context"

// Prompt is one model call: a system instruction, the user turn and the
// sampling parameters.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	TopP        float64
	Candidates  int
}

// Model is the language model seen as a black box.
type Model interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
	Provider() string
}
