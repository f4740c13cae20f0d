package nl2sql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/querybot/querybot/internal/observability"
	"github.com/querybot/querybot/internal/schema"
)

// MaxAttempts is the number of model calls a single generation may make.
const MaxAttempts = 3

const (
	DefaultTemperature = 0.1
	DefaultTopP        = 0.9
)

var ErrEmptyRequest = errors.New("request is required")

type State int

const (
	StateDrafting State = iota
	StateValidating
	StateRetrying
	StateAccepted
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateDrafting:
		return "drafting"
	case StateValidating:
		return "validating"
	case StateRetrying:
		return "retrying"
	case StateAccepted:
		return "accepted"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type SchemaSource interface {
	Summarize(ctx context.Context) (schema.Summary, error)
}

type Request struct {
	Text              string
	ExtraInstructions string
}

// Generation is the outcome of one request. When State is StateExhausted the
// statement is the last candidate and Validated is false.
type Generation struct {
	Request    string `json:"request"`
	Statement  string `json:"sql"`
	Reasoning  string `json:"reasoning"`
	Validated  bool   `json:"validated"`
	Attempts   int    `json:"attempts"`
	Diagnostic string `json:"diagnostic,omitempty"`
	State      State  `json:"state"`
}

type GeneratorConfig struct {
	Dialect      string
	SystemPrompt string
	Temperature  float64
	TopP         float64
}

type Generator struct {
	model     Model
	validator *Validator
	schema    SchemaSource
	cfg       GeneratorConfig
	logger    *slog.Logger
}

func NewGenerator(model Model, validator *Validator, source SchemaSource, cfg GeneratorConfig, logger *slog.Logger) (*Generator, error) {
	if model == nil {
		return nil, fmt.Errorf("model is required")
	}
	if validator == nil {
		return nil, fmt.Errorf("validator is required")
	}
	if source == nil {
		return nil, fmt.Errorf("schema source is required")
	}
	if strings.TrimSpace(cfg.Dialect) == "" {
		cfg.Dialect = "SQLite"
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.TopP <= 0 || cfg.TopP > 1 {
		cfg.TopP = DefaultTopP
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Generator{model: model, validator: validator, schema: source, cfg: cfg, logger: logger}, nil
}

// Generate drafts a statement, plan-checks it and feeds any engine diagnostic
// back to the model, for at most MaxAttempts model calls. Running out of
// attempts is reported in the Generation, not as an error. Schema and model
// failures abort and are returned.
func (g *Generator) Generate(ctx context.Context, req Request) (Generation, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Generation{}, ErrEmptyRequest
	}

	summary, err := g.schema.Summarize(ctx)
	if err != nil {
		observability.ObserveGeneration(observability.GenerationFailed)
		return Generation{}, fmt.Errorf("summarize schema: %w", err)
	}
	schemaText := summary.String()

	prompt := Prompt{
		System:      systemInstruction(g.cfg.Dialect, g.cfg.SystemPrompt, req.ExtraInstructions),
		User:        initialPrompt(g.cfg.Dialect, schemaText, text),
		Temperature: g.cfg.Temperature,
		TopP:        g.cfg.TopP,
		Candidates:  1,
	}

	generation := Generation{Request: text, State: StateDrafting}
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			observability.ObserveGeneration(observability.GenerationFailed)
			return Generation{}, err
		}

		observability.ObserveGenerationAttempt()
		raw, err := g.model.Complete(ctx, prompt)
		if err != nil {
			observability.ObserveGeneration(observability.GenerationFailed)
			return Generation{}, fmt.Errorf("model attempt %d: %w", attempt, err)
		}
		generation.Attempts = attempt
		generation.Statement = CleanStatement(raw)
		generation.State = StateValidating

		verdict := g.validator.Validate(ctx, generation.Statement)
		if verdict.Accepted {
			generation.State = StateAccepted
			generation.Validated = true
			generation.Diagnostic = ""
			generation.Reasoning = fmt.Sprintf("SQL generated via %s and validated against %s.", g.model.Provider(), g.cfg.Dialect)
			observability.ObserveGeneration(observability.GenerationAccepted)
			g.logger.InfoContext(ctx, "statement generated",
				slog.Int("attempts", attempt),
				slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			)
			return generation, nil
		}

		observability.ObserveValidationRejection()
		generation.Diagnostic = verdict.Diagnostic
		generation.State = StateRetrying
		g.logger.DebugContext(ctx, "candidate rejected",
			slog.Int("attempt", attempt),
			slog.String("diagnostic", verdict.Diagnostic),
		)
		prompt.User = retryPrompt(g.cfg.Dialect, schemaText, text, verdict.Diagnostic)
	}

	generation.State = StateExhausted
	generation.Validated = false
	generation.Reasoning = "Model attempts exhausted; last validation error: " + generation.Diagnostic
	observability.ObserveGeneration(observability.GenerationExhausted)
	g.logger.WarnContext(ctx, "generation exhausted",
		slog.Int("attempts", generation.Attempts),
		slog.String("diagnostic", generation.Diagnostic),
	)
	return generation, nil
}
