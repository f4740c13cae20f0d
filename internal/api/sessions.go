package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/querybot/querybot/internal/observability"
	"github.com/querybot/querybot/internal/session"
)

type sessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

func handleCreateSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session registry is not configured", false, nil)
		return
	}
	s := deps.Sessions.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: s.ID(), CreatedAt: s.CreatedAt()})
}

func handleDeleteSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session registry is not configured", false, nil)
		return
	}
	id := r.PathValue("id")
	if !deps.Sessions.Delete(id) {
		writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found", false, map[string]any{"session_id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionFromRequest resolves X-Session-ID. On failure it has already written
// the error response.
func sessionFromRequest(deps Dependencies, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session registry is not configured", false, nil)
		return nil, false
	}
	id := strings.TrimSpace(r.Header.Get(observability.SessionHeader))
	if id == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SESSION_REQUIRED", "X-Session-ID header is required", false, nil)
		return nil, false
	}
	s, err := deps.Sessions.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found", false, map[string]any{"session_id": id})
			return nil, false
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_LOOKUP_FAILED", err.Error(), true, nil)
		return nil, false
	}
	return s, true
}
