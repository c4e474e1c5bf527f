package handlers

import (
	"errors"
	"net/http"

	"github.com/iago/geo-visibility-back/internal/queue"
)

func (api *API) QueueStatus(w http.ResponseWriter, r *http.Request) {
	status, err := api.queue.GetQueueStatus(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to get queue status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (api *API) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := api.queue.GetAllJobs(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to list jobs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (api *API) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobID")
	job, err := api.queue.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "job not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load job")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"job":      job,
		"position": api.queue.GetJobPosition(r.Context(), jobID),
	})
}

func (api *API) CancelJob(w http.ResponseWriter, r *http.Request) {
	if !api.queue.CancelJob(r.Context(), r.PathValue("jobID")) {
		writeError(w, r, http.StatusBadRequest, "not_cancellable", "job not found or not pending")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "job cancelled"})
}

func (api *API) ClearCompletedJobs(w http.ResponseWriter, r *http.Request) {
	removed, err := api.queue.ClearCompletedJobs(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to clear jobs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "completed jobs cleared", "cleared": removed})
}
