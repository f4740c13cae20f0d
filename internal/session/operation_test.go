package session

import (
	"context"
	"testing"
)

func TestParseOperation(t *testing.T) {
	for _, name := range []string{"generate", "RUN", " is_mutating ", "schema_summary", "history"} {
		if _, err := ParseOperation(name); err != nil {
			t.Fatalf("ParseOperation(%q) error = %v", name, err)
		}
	}
	for _, name := range []string{"", "exec", "drop", "__class__"} {
		if _, err := ParseOperation(name); err == nil {
			t.Fatalf("ParseOperation(%q) accepted unknown operation", name)
		}
	}
}

func TestDispatch(t *testing.T) {
	s, _ := newFixtureSession(t, "SELECT COUNT(*) AS c FROM orders")
	ctx := context.Background()

	reply, err := Dispatch(ctx, s, Call{Op: OpGenerate, Request: "count orders"})
	if err != nil || reply.Generation == nil || !reply.Generation.Validated {
		t.Fatalf("Dispatch(generate) = %#v, %v", reply, err)
	}

	reply, err = Dispatch(ctx, s, Call{Op: OpRun, Statement: reply.Generation.Statement})
	if err != nil || reply.Outcome == nil || reply.Outcome.StatusText() != "ok" {
		t.Fatalf("Dispatch(run) = %#v, %v", reply, err)
	}

	reply, err = Dispatch(ctx, s, Call{Op: OpIsMutating, Statement: "truncate orders"})
	if err != nil || !reply.Mutating {
		t.Fatalf("Dispatch(is_mutating) = %#v, %v", reply, err)
	}

	reply, err = Dispatch(ctx, s, Call{Op: OpSchemaSummary})
	if err != nil || reply.Schema == "" {
		t.Fatalf("Dispatch(schema_summary) = %#v, %v", reply, err)
	}

	reply, err = Dispatch(ctx, s, Call{Op: OpHistory})
	if err != nil || len(reply.History) != 1 {
		t.Fatalf("Dispatch(history) = %#v, %v", reply, err)
	}

	if _, err := Dispatch(ctx, s, Call{Op: Operation("eval")}); err == nil {
		t.Fatal("Dispatch accepted unknown operation")
	}
}
