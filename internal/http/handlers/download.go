package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/iago/geo-visibility-back/internal/export"
)

func (api *API) Download(w http.ResponseWriter, r *http.Request) {
	fileName := r.PathValue("fileName")
	if !export.ValidFileName(fileName) {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid file name")
		return
	}

	file, err := api.files.Open(r.Context(), fileName)
	if err != nil {
		if errors.Is(err, export.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", fileName+" file not found")
			return
		}
		api.logf("download failed file=%s err=%v", fileName, err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to read report file")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file); err != nil {
		api.logf("download interrupted file=%s err=%v", fileName, err)
		return
	}
	api.logf("report downloaded file=%s", fileName)
}
