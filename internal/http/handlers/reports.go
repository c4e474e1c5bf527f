package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/iago/geo-visibility-back/internal/report"
)

func (api *API) ListReports(w http.ResponseWriter, r *http.Request) {
	items, err := api.reports.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to list reports")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reports":   items,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (api *API) GetReport(w http.ResponseWriter, r *http.Request) {
	item, err := api.reports.Get(r.Context(), r.PathValue("reportID"))
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "report not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load report")
		return
	}
	writeJSON(w, http.StatusOK, item)
}
