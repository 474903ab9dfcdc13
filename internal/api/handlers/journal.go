package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/mindjournal/internal/contracts"
	"github.com/wonny/mindjournal/internal/dashboard"
	"github.com/wonny/mindjournal/pkg/logger"
)

// JournalHandler writes journal entries
type JournalHandler struct {
	service *dashboard.Service
	logger  *logger.Logger
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(service *dashboard.Service, log *logger.Logger) *JournalHandler {
	return &JournalHandler{
		service: service,
		logger:  log,
	}
}

// Create stores a new entry for the signed-in user
// POST /api/journal
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var entry contracts.NewEntry
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entry); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.service.AddEntry(r.Context(), userID, entry)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, rec)
}

// Delete removes an entry of the signed-in user
// DELETE /api/journal/{id}
func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteEntry(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
