package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/iago/geo-visibility-back/internal/domain"
)

const sseKeepAlive = 30 * time.Second

// Events streams report notifications as server-sent events until the
// client goes away.
func (api *API) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	notifications, unsubscribe := api.hub.Subscribe()
	defer unsubscribe()
	api.logf("sse connected request_id=%s clients=%d", requestID(r), api.hub.ClientCount())

	if err := writeEvent(w, domain.Notification{Type: domain.NotificationConnected, Timestamp: time.Now().UTC()}); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			api.logf("sse disconnected request_id=%s", requestID(r))
			return
		case notification, open := <-notifications:
			if !open {
				return
			}
			if err := writeEvent(w, notification); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, notification domain.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
