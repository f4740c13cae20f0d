package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/querybot/querybot/internal/guard"
	"github.com/querybot/querybot/internal/ledger"
	"github.com/querybot/querybot/internal/nl2sql"
	"github.com/querybot/querybot/internal/session"
)

type generateRequest struct {
	Request           string `json:"request"`
	ExtraInstructions string `json:"extra_instructions"`
	Limit             int    `json:"limit"`
}

type generateResponse struct {
	nl2sql.Generation
	Mutating bool            `json:"mutating"`
	Preview  session.Preview `json:"preview"`
}

type runRequest struct {
	SQL        string `json:"sql"`
	UsePending bool   `json:"use_pending"`
	Confirm    bool   `json:"confirm"`
	Limit      int    `json:"limit"`
}

type classifyRequest struct {
	SQL   string `json:"sql"`
	Limit int    `json:"limit"`
}

type historyResponse struct {
	Entries []ledger.Entry `json:"entries"`
}

func handleGenerate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}
	var request generateRequest
	if !decodeBody(w, r, &request) {
		return
	}
	if strings.TrimSpace(request.Request) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "REQUEST_REQUIRED", "request is required", false, nil)
		return
	}

	reply, err := session.Dispatch(r.Context(), s, session.Call{
		Op:                session.OpGenerate,
		Request:           request.Request,
		ExtraInstructions: request.ExtraInstructions,
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrGenerationUnavailable):
			writeError(r.Context(), w, http.StatusNotImplemented, "GENERATE_NOT_CONFIGURED", "statement generation is not configured", false, nil)
		case errors.Is(err, nl2sql.ErrEmptyRequest):
			writeError(r.Context(), w, http.StatusBadRequest, "REQUEST_REQUIRED", err.Error(), false, nil)
		case errors.Is(err, context.DeadlineExceeded):
			writeError(r.Context(), w, http.StatusGatewayTimeout, "GENERATION_TIMEOUT", err.Error(), true, nil)
		default:
			writeError(r.Context(), w, http.StatusBadGateway, "GENERATION_FAILED", err.Error(), true, nil)
		}
		return
	}

	generation := *reply.Generation
	writeJSON(w, http.StatusOK, generateResponse{
		Generation: generation,
		Mutating:   s.IsMutating(generation.Statement),
		Preview:    s.Preview(generation.Statement, request.Limit),
	})
}

func handleRun(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}
	var request runRequest
	if !decodeBody(w, r, &request) {
		return
	}

	statement := request.SQL
	if strings.TrimSpace(statement) == "" {
		if !request.UsePending {
			writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required unless use_pending is set", false, nil)
			return
		}
		pending, ok := s.Pending()
		if !ok || strings.TrimSpace(pending.Statement) == "" {
			writeError(r.Context(), w, http.StatusConflict, "NO_PENDING_STATEMENT", session.ErrNoPendingStatement.Error(), false, nil)
			return
		}
		statement = pending.Statement
	}

	reply, err := session.Dispatch(r.Context(), s, session.Call{
		Op:        session.OpRun,
		Statement: statement,
		Confirmed: request.Confirm,
		Bound:     request.Limit,
	})
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "RUN_FAILED", err.Error(), false, nil)
		return
	}
	writeOutcome(r.Context(), w, *reply.Outcome)
}

func writeOutcome(ctx context.Context, w http.ResponseWriter, outcome guard.Outcome) {
	switch {
	case outcome.Refused:
		writeError(ctx, w, http.StatusConflict, "CONFIRMATION_REQUIRED", outcome.Message, false, map[string]any{
			"sql":      outcome.Statement,
			"mutating": true,
		})
	case outcome.Status == guard.StatusError:
		writeError(ctx, w, http.StatusUnprocessableEntity, "EXECUTION_FAILED", outcome.Message, false, map[string]any{
			"sql":    outcome.Statement,
			"status": outcome.StatusText(),
		})
	default:
		writeJSON(w, http.StatusOK, outcome)
	}
}

func handleClassify(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}
	var request classifyRequest
	if !decodeBody(w, r, &request) {
		return
	}
	reply, err := session.Dispatch(r.Context(), s, session.Call{Op: session.OpIsMutating, Statement: request.SQL})
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CLASSIFY_FAILED", err.Error(), false, nil)
		return
	}
	preview := s.Preview(request.SQL, request.Limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"mutating":       reply.Mutating,
		"classification": preview.Classification,
		"prepared_sql":   preview.Statement,
		"limit_added":    preview.LimitAdded,
	})
}

func handleHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}
	reply, err := session.Dispatch(r.Context(), s, session.Call{Op: session.OpHistory})
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "HISTORY_FAILED", err.Error(), false, nil)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Entries: reply.History})
}
