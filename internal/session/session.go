// Package session is the caller facade: it ties generation, the execution
// guard and the ledger together for one conversation.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/querybot/querybot/internal/guard"
	"github.com/querybot/querybot/internal/ledger"
	"github.com/querybot/querybot/internal/nl2sql"
	"github.com/querybot/querybot/internal/safety"
	"github.com/querybot/querybot/internal/schema"
)

var (
	ErrNoPendingStatement    = errors.New("no pending statement")
	ErrSessionNotFound       = errors.New("session not found")
	ErrGenerationUnavailable = errors.New("statement generation is not configured")
)

type Generator interface {
	Generate(ctx context.Context, req nl2sql.Request) (nl2sql.Generation, error)
}

type SchemaSource interface {
	Summarize(ctx context.Context) (schema.Summary, error)
}

// Dependencies are shared by every session. Generator may be nil when no
// model is configured; statements can still be run directly.
type Dependencies struct {
	Generator Generator
	Guard     *guard.Guard
	Schema    SchemaSource
	Logger    *slog.Logger
}

type Session struct {
	id        string
	createdAt time.Time
	deps      Dependencies
	ledger    *ledger.Ledger

	// cycle serialises generate and run; mu guards the fields below.
	cycle   sync.Mutex
	mu      sync.RWMutex
	pending *nl2sql.Generation
	last    *guard.Outcome
}

func New(id string, deps Dependencies) *Session {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if deps.Guard == nil {
		deps.Guard = guard.New(nil, guard.DefaultLimit, deps.Logger)
	}
	return &Session{
		id:        id,
		createdAt: time.Now().UTC(),
		deps:      deps,
		ledger:    ledger.New(),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Generate produces a candidate statement and remembers it as pending.
func (s *Session) Generate(ctx context.Context, request string) (nl2sql.Generation, error) {
	return s.GenerateWith(ctx, nl2sql.Request{Text: request})
}

func (s *Session) GenerateWith(ctx context.Context, req nl2sql.Request) (nl2sql.Generation, error) {
	if s.deps.Generator == nil {
		return nl2sql.Generation{}, ErrGenerationUnavailable
	}
	s.cycle.Lock()
	defer s.cycle.Unlock()

	generation, err := s.deps.Generator.Generate(ctx, req)
	if err != nil {
		return nl2sql.Generation{}, err
	}
	s.mu.Lock()
	s.pending = &generation
	s.mu.Unlock()

	s.deps.Logger.InfoContext(ctx, "generation finished",
		slog.String("session_id", s.id),
		slog.String("state", generation.State.String()),
		slog.Bool("mutating", safety.IsMutating(generation.Statement)),
	)
	return generation, nil
}

// Run executes statement through the guard and records the attempt, refused
// or not. The ledger keeps statement as submitted, before any row bound is
// added. The request text comes from the pending generation when it produced
// this statement.
func (s *Session) Run(ctx context.Context, statement string, confirmed bool, bound int) guard.Outcome {
	s.cycle.Lock()
	defer s.cycle.Unlock()

	outcome := s.deps.Guard.PrepareAndRun(ctx, statement, confirmed, bound)

	s.mu.Lock()
	request := ""
	if s.pending != nil && strings.TrimSpace(s.pending.Statement) == strings.TrimSpace(statement) {
		request = s.pending.Request
	}
	if outcome.Status == guard.StatusOK && outcome.Rows != nil {
		last := outcome
		s.last = &last
	}
	s.mu.Unlock()

	s.ledger.Record(request, statement, confirmed, outcome)
	return outcome
}

// RunPending runs the statement of the last generation.
func (s *Session) RunPending(ctx context.Context, confirmed bool, bound int) (guard.Outcome, error) {
	s.mu.RLock()
	pending := s.pending
	s.mu.RUnlock()
	if pending == nil || strings.TrimSpace(pending.Statement) == "" {
		return guard.Outcome{}, ErrNoPendingStatement
	}
	return s.Run(ctx, pending.Statement, confirmed, bound), nil
}

func (s *Session) Pending() (nl2sql.Generation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pending == nil {
		return nl2sql.Generation{}, false
	}
	return *s.pending, true
}

func (s *Session) IsMutating(statement string) bool {
	return safety.IsMutating(statement)
}

func (s *Session) SchemaSummary(ctx context.Context) (string, error) {
	if s.deps.Schema == nil {
		return "", errors.New("schema source is not configured")
	}
	summary, err := s.deps.Schema.Summarize(ctx)
	if err != nil {
		return "", err
	}
	return summary.String(), nil
}

func (s *Session) History() []ledger.Entry {
	return s.ledger.All()
}

// LastResult is the most recent successful read.
func (s *Session) LastResult() (guard.Outcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return guard.Outcome{}, false
	}
	return *s.last, true
}

func (s *Session) LastRows() []map[string]any {
	last, ok := s.LastResult()
	if !ok {
		return nil
	}
	return last.Rows
}

// Preview shows how statement would be run without running it.
type Preview struct {
	Classification safety.Classification `json:"classification"`
	Statement      string                `json:"sql"`
	LimitAdded     bool                  `json:"limit_added"`
}

func (s *Session) Preview(statement string, bound int) Preview {
	prepared := s.deps.Guard.Prepare(statement, bound)
	return Preview{
		Classification: safety.Classify(statement),
		Statement:      prepared,
		LimitAdded:     strings.TrimSpace(prepared) != strings.TrimSpace(statement),
	}
}
