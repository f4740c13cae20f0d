package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/querybot/querybot/internal/guard"
	"github.com/querybot/querybot/internal/ledger"
	"github.com/querybot/querybot/internal/nl2sql"
)

// Operation is the closed set of things a caller can ask a session to do.
type Operation string

const (
	OpGenerate      Operation = "generate"
	OpRun           Operation = "run"
	OpIsMutating    Operation = "is_mutating"
	OpSchemaSummary Operation = "schema_summary"
	OpHistory       Operation = "history"
)

func ParseOperation(name string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(name))); op {
	case OpGenerate, OpRun, OpIsMutating, OpSchemaSummary, OpHistory:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation %q", name)
	}
}

type Call struct {
	Op                Operation
	Request           string
	ExtraInstructions string
	Statement         string
	Confirmed         bool
	Bound             int
}

// Reply holds the field matching the call's operation; the rest stay zero.
type Reply struct {
	Generation *nl2sql.Generation
	Outcome    *guard.Outcome
	Mutating   bool
	Schema     string
	History    []ledger.Entry
}

func Dispatch(ctx context.Context, s *Session, call Call) (Reply, error) {
	switch call.Op {
	case OpGenerate:
		generation, err := s.GenerateWith(ctx, nl2sql.Request{Text: call.Request, ExtraInstructions: call.ExtraInstructions})
		if err != nil {
			return Reply{}, err
		}
		return Reply{Generation: &generation}, nil
	case OpRun:
		outcome := s.Run(ctx, call.Statement, call.Confirmed, call.Bound)
		return Reply{Outcome: &outcome}, nil
	case OpIsMutating:
		return Reply{Mutating: s.IsMutating(call.Statement)}, nil
	case OpSchemaSummary:
		summary, err := s.SchemaSummary(ctx)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Schema: summary}, nil
	case OpHistory:
		return Reply{History: s.History()}, nil
	default:
		return Reply{}, fmt.Errorf("unknown operation %q", call.Op)
	}
}
