// internal/transport/http/handler/ws.go
package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"notification-service/internal/common/logger"
	"notification-service/internal/realtime"
)

// WSHandler upgrades /ws requests into hub-registered clients.
type WSHandler struct {
	hub          *realtime.Hub
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	logger       logger.Logger
}

func NewWSHandler(hub *realtime.Hub, allowedOrigins []string, pingInterval time.Duration, log logger.Logger) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		pingInterval: pingInterval,
		logger:       log.WithFields(map[string]interface{}{"component": "ws_handler"}),
	}
}

// Serve upgrades the connection. The owning user id comes from the
// user_id query parameter; connections without one are rejected before
// the upgrade.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Warn("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	realtime.NewClient(h.hub, conn, userID, h.pingInterval, h.logger).Start()
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
