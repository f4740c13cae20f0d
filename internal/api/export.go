package api

import (
	"net/http"

	"github.com/querybot/querybot/internal/export"
)

type exportRequest struct {
	Format string `json:"format"`
}

func handleExport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Exporter == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "EXPORT_NOT_CONFIGURED", "result export is not enabled", false, nil)
		return
	}
	s, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}
	var request exportRequest
	if !decodeBody(w, r, &request) {
		return
	}
	format, err := export.ParseFormat(request.Format)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "UNSUPPORTED_FORMAT", err.Error(), false, nil)
		return
	}
	last, ok := s.LastResult()
	if !ok {
		writeError(r.Context(), w, http.StatusConflict, "NO_RESULT", "run a read statement before exporting", false, nil)
		return
	}

	published, err := deps.Exporter.Publish(r.Context(), s.ID(), format, export.Table{Columns: last.Columns, Rows: last.Rows})
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "EXPORT_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusCreated, published)
}
