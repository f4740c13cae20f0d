// Package guard is the only path by which statements reach the engine for
// execution. It bounds reads and refuses unconfirmed mutations.
package guard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/querybot/querybot/internal/observability"
	"github.com/querybot/querybot/internal/query"
	"github.com/querybot/querybot/internal/safety"
)

const DefaultLimit = 1000

var (
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrEmptyStatement       = errors.New("statement is empty")
)

type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Outcome is what a run produced. Rows is nil for mutations and for refused
// or failed runs.
type Outcome struct {
	Status    Status           `json:"status"`
	Message   string           `json:"message,omitempty"`
	Statement string           `json:"sql"`
	Columns   []string         `json:"columns,omitempty"`
	Rows      []map[string]any `json:"rows"`
	Affected  int64            `json:"rows_affected,omitempty"`
	Refused   bool             `json:"refused,omitempty"`
}

// StatusText renders "ok" or "error: <message>".
func (o Outcome) StatusText() string {
	if o.Status == StatusOK {
		return string(StatusOK)
	}
	return string(StatusError) + ": " + o.Message
}

func (o Outcome) RowCount() int {
	return len(o.Rows)
}

type Guard struct {
	executor     query.Executor
	defaultLimit int
	logger       *slog.Logger
}

func New(executor query.Executor, defaultLimit int, logger *slog.Logger) *Guard {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Guard{executor: executor, defaultLimit: defaultLimit, logger: logger}
}

func (g *Guard) DefaultLimit() int {
	return g.defaultLimit
}

// Prepare returns the statement exactly as PrepareAndRun would execute it.
func (g *Guard) Prepare(statement string, bound int) string {
	if safety.IsMutating(statement) {
		return statement
	}
	return safety.EnsureLimit(statement, g.bound(bound))
}

// PrepareAndRun executes statement under the guard rules. Engine failures
// are reported in the Outcome rather than returned.
func (g *Guard) PrepareAndRun(ctx context.Context, statement string, confirmed bool, bound int) Outcome {
	if strings.TrimSpace(statement) == "" {
		return Outcome{Status: StatusError, Message: ErrEmptyStatement.Error(), Statement: statement}
	}

	mutating := safety.IsMutating(statement)
	if mutating && !confirmed {
		observability.ObserveGuardDecision(observability.GuardRefused)
		g.logger.InfoContext(ctx, "mutation refused",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("keyword", safety.Classify(statement).Keyword),
		)
		return Outcome{Status: StatusError, Message: ErrConfirmationRequired.Error(), Statement: statement, Refused: true}
	}

	prepared := statement
	if mutating {
		observability.ObserveGuardDecision(observability.GuardExecuted)
	} else {
		prepared = safety.EnsureLimit(statement, g.bound(bound))
		observability.ObserveGuardDecision(observability.GuardBounded)
	}
	if g.executor == nil {
		return Outcome{Status: StatusError, Message: "executor is not configured", Statement: prepared}
	}

	start := time.Now()
	result, err := g.executor.Execute(ctx, query.Request{SQL: prepared, ReturnsRows: !mutating})
	if err != nil {
		observability.ObserveExecution(string(StatusError), time.Since(start))
		g.logger.WarnContext(ctx, "statement failed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("error", err.Error()),
		)
		return Outcome{Status: StatusError, Message: err.Error(), Statement: prepared}
	}
	observability.ObserveExecution(string(StatusOK), time.Since(start))

	outcome := Outcome{Status: StatusOK, Statement: prepared, Affected: result.RowsAffected}
	if !mutating {
		outcome.Columns = result.Columns
		outcome.Rows = result.Records()
		if outcome.Rows == nil {
			outcome.Rows = []map[string]any{}
		}
	}
	g.logger.DebugContext(ctx, "statement executed",
		slog.Bool("mutating", mutating),
		slog.Int("rows", outcome.RowCount()),
		slog.Duration("duration", result.Duration),
	)
	return outcome
}

func (g *Guard) bound(bound int) int {
	if bound <= 0 {
		return g.defaultLimit
	}
	return bound
}
