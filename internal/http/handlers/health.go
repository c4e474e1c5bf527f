package handlers

import (
	"net/http"

	"github.com/iago/geo-visibility-back/internal/http/middleware"
)

func (api *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func requestID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}
