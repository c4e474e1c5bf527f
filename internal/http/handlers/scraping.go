package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/iago/geo-visibility-back/internal/queue"
	"github.com/iago/geo-visibility-back/internal/service"
)

func (api *API) InitScraping(w http.ResponseWriter, r *http.Request) {
	var request service.ScrapingRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}

	result, err := api.scraping.Start(r.Context(), request)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) || errors.Is(err, queue.ErrInvalidJob) {
			writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		api.logf("scraping init failed request_id=%s err=%v", requestID(r), err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to start scraping")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"message":   "scraping job queued",
		"jobId":     result.JobID,
		"reportId":  result.Report.ID,
		"fileName":  result.Report.FileName,
		"position":  result.Position,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
