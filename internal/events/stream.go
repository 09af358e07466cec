package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

const keepaliveInterval = 15 * time.Second

// StreamHandler serves the SSE invalidation feed. Receivers re-fetch role
// and override state and recompute their effective set on every message.
type StreamHandler struct {
	hub    *Hub
	logger *slog.Logger
}

// NewStreamHandler constructs a StreamHandler.
func NewStreamHandler(hub *Hub, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, logger: logger}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		authz.RespondError(w, authz.ErrForbidden)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub := h.hub.Subscribe(principal.UserID, principal.RoleID)
	defer h.hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case notice := <-sub.C:
			raw, err := json.Marshal(notice)
			if err != nil {
				h.logger.Error("marshal notice", slog.Any("error", err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", notice.Channel, raw); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
