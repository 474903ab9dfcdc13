package handlers

import (
	"net/http"

	"github.com/wonny/mindjournal/internal/realtime"
)

// WSHandler streams realtime dashboard updates
type WSHandler struct {
	hub *realtime.Hub
}

// NewWSHandler creates a websocket handler
func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Serve upgrades the connection for the signed-in user
// GET /ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	h.hub.ServeWS(w, r, userID)
}
