package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wonny/mindjournal/internal/session"
	"github.com/wonny/mindjournal/pkg/logger"
)

// IssuerKeyHeader carries the shared secret of the auth service
const IssuerKeyHeader = "X-Issuer-Key"

// SessionHandler issues and ends dashboard sessions
type SessionHandler struct {
	manager   *session.Manager
	issuerKey string
	logger    *logger.Logger
}

// NewSessionHandler creates a session handler. An empty issuerKey accepts any caller.
func NewSessionHandler(manager *session.Manager, issuerKey string, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		manager:   manager,
		issuerKey: issuerKey,
		logger:    log,
	}
}

// Create issues a session for a user verified by the auth service
// POST /api/session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.issuerKey != "" {
		given := r.Header.Get(IssuerKeyHeader)
		if subtle.ConstantTimeCompare([]byte(given), []byte(h.issuerKey)) != 1 {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
	}

	var id session.Identity
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&id); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, err := h.manager.Login(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.WithField("user_id", s.UserID).Info("Session issued")
	respondJSON(w, http.StatusCreated, s)
}

// Delete ends the current session (logout)
// DELETE /api/session
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.manager.Clear(r.Context(), s.Token); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BearerToken extracts the session token from the Authorization header,
// falling back to the token query parameter used by websocket clients.
func BearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
