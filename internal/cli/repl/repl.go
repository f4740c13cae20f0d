// Package repl is the interactive terminal front end: natural-language
// requests in, generated SQL and results out.
package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/querybot/querybot/internal/export"
	"github.com/querybot/querybot/internal/guard"
	"github.com/querybot/querybot/internal/schema"
	"github.com/querybot/querybot/internal/session"
)

const banner = "Supply Chain Query Bot - type 'exit' to quit"

type Describer interface {
	Describe(ctx context.Context, table string) (schema.TableDetail, error)
}

type Options struct {
	In        io.Reader
	Out       io.Writer
	Inspector Describer
	// Bound is the row bound applied to reads; zero uses the guard default.
	Bound int
}

type REPL struct {
	session   *session.Session
	inspector Describer
	bound     int
	in        *bufio.Scanner
	out       io.Writer

	warn    *color.Color
	success *color.Color
	failure *color.Color
}

func New(s *session.Session, opts Options) *REPL {
	in := opts.In
	if in == nil {
		in = strings.NewReader("")
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	return &REPL{
		session:   s,
		inspector: opts.Inspector,
		bound:     opts.Bound,
		in:        bufio.NewScanner(in),
		out:       out,
		warn:      color.New(color.FgYellow, color.Bold),
		success:   color.New(color.FgGreen),
		failure:   color.New(color.FgRed),
	}
}

// Run reads requests until exit, quit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	r.printf("%s\n", banner)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, ok := r.prompt("\nEnter your request: ")
		if !ok {
			r.printf("\n")
			return r.in.Err()
		}
		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			r.printf("Goodbye\n")
			return nil
		}
		if strings.HasPrefix(line, `\`) {
			r.command(ctx, line)
			continue
		}
		r.request(ctx, line)
	}
}

func (r *REPL) request(ctx context.Context, text string) {
	generation, err := r.session.Generate(ctx, text)
	if err != nil {
		if errors.Is(err, session.ErrGenerationUnavailable) {
			r.failure.Fprintln(r.out, "No language model is configured; use \\sql <statement> to run SQL directly.")
			return
		}
		r.failure.Fprintf(r.out, "error: %v\n", err)
		return
	}
	r.printf("\nGenerated SQL:\n%s\n", generation.Statement)
	if !generation.Validated {
		r.warn.Fprintf(r.out, "Validation failed after %d attempt(s): %s\n", generation.Attempts, generation.Diagnostic)
	}
	r.execute(ctx, generation.Statement)
}

func (r *REPL) execute(ctx context.Context, statement string) {
	confirmed := false
	if r.session.IsMutating(statement) {
		r.warn.Fprint(r.out, "This query modifies data. Type 'yes' to proceed: ")
		answer, _ := r.prompt("")
		if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
			r.printf("Skipped execution.\n")
			return
		}
		confirmed = true
	} else if preview := r.session.Preview(statement, r.bound); preview.LimitAdded {
		r.printf("Running with a row bound: %s\n", preview.Statement)
	}

	outcome := r.session.Run(ctx, statement, confirmed, r.bound)
	if outcome.Status != guard.StatusOK {
		r.failure.Fprintln(r.out, outcome.StatusText())
		return
	}
	if outcome.Rows == nil {
		r.success.Fprintln(r.out, "Success: mutation executed.")
		return
	}
	r.success.Fprintf(r.out, "Returned %d row(s).\n", len(outcome.Rows))
	r.printJSON(outcome.Rows)
}

func (r *REPL) command(ctx context.Context, line string) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case `\help`:
		r.printf("%s", helpText)
	case `\schema`:
		summary, err := r.session.SchemaSummary(ctx)
		if err != nil {
			r.failure.Fprintf(r.out, "error: %v\n", err)
			return
		}
		r.printf("%s\n", summary)
	case `\describe`:
		r.describe(ctx, arg)
	case `\history`:
		entries := r.session.History()
		if len(entries) == 0 {
			r.printf("No statements run yet.\n")
			return
		}
		r.printJSON(entries)
	case `\export`:
		r.export(arg)
	case `\sql`:
		if arg == "" {
			r.failure.Fprintln(r.out, `usage: \sql <statement>`)
			return
		}
		r.execute(ctx, arg)
	default:
		r.failure.Fprintf(r.out, "unknown command %s; type \\help\n", name)
	}
}

func (r *REPL) describe(ctx context.Context, table string) {
	if table == "" {
		r.failure.Fprintln(r.out, `usage: \describe <table>`)
		return
	}
	if r.inspector == nil {
		r.failure.Fprintln(r.out, "schema browser is not available")
		return
	}
	detail, err := r.inspector.Describe(ctx, table)
	if err != nil {
		r.failure.Fprintf(r.out, "error: %v\n", err)
		return
	}
	r.printJSON(detail)
}

func (r *REPL) export(path string) {
	if path == "" {
		r.failure.Fprintln(r.out, `usage: \export <path.csv|path.parquet>`)
		return
	}
	last, ok := r.session.LastResult()
	if !ok {
		r.failure.Fprintln(r.out, "no result to export; run a query first")
		return
	}
	format, err := export.WriteFile(path, export.Table{Columns: last.Columns, Rows: last.Rows})
	if err != nil {
		r.failure.Fprintf(r.out, "error: %v\n", err)
		return
	}
	r.success.Fprintf(r.out, "Wrote %d row(s) to %s (%s).\n", len(last.Rows), path, format)
}

func (r *REPL) prompt(text string) (string, bool) {
	if text != "" {
		r.printf("%s", text)
	}
	if !r.in.Scan() {
		return "", false
	}
	return r.in.Text(), true
}

func (r *REPL) printJSON(v any) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		r.failure.Fprintf(r.out, "error: encode result: %v\n", err)
		return
	}
	r.printf("%s\n", encoded)
}

func (r *REPL) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

const helpText = `Type a request in plain language, or one of:
  \schema             show the schema summary sent to the model
  \describe <table>   show columns, foreign keys and row count
  \history            show statements run in this session
  \export <path>      write the last result to a .csv or .parquet file
  \sql <statement>    run a statement without generating it
  exit | quit         leave
`
