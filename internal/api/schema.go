package api

import (
	"errors"
	"net/http"

	"github.com/querybot/querybot/internal/schema"
)

type schemaResponse struct {
	Summary string         `json:"summary"`
	Tables  []schema.Table `json:"tables"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema source is not configured", false, nil)
		return
	}
	summary, err := deps.Schema.Summarize(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "SCHEMA_UNAVAILABLE", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{Summary: summary.String(), Tables: summary.Tables})
}

func handleDescribeTable(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Inspector == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema inspector is not configured", false, nil)
		return
	}
	table := r.PathValue("table")
	detail, err := deps.Inspector.Describe(r.Context(), table)
	if err != nil {
		if errors.Is(err, schema.ErrTableNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "TABLE_NOT_FOUND", "table not found", false, map[string]any{"table": table})
			return
		}
		writeError(r.Context(), w, http.StatusBadGateway, "SCHEMA_UNAVAILABLE", err.Error(), true, map[string]any{"table": table})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
