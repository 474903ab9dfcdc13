package handlers

import (
	"net/http"

	"github.com/wonny/mindjournal/internal/dashboard"
	"github.com/wonny/mindjournal/pkg/logger"
)

// DashboardHandler serves heatmaps and statistics of the signed-in user
// ⭐ SSOT: dashboard read endpoints
type DashboardHandler struct {
	service *dashboard.Service
	logger  *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *dashboard.Service, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  log,
	}
}

// GetHeatmap returns the activity grid of a year
// GET /api/heatmap/{year}
func (h *DashboardHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	year, ok := pathInt(r, "year")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid year")
		return
	}

	resp, err := h.service.Heatmap(r.Context(), userID, year)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetMonthlyStats returns the statistics of one month
// GET /api/stats/monthly/{year}/{month}
func (h *DashboardHandler) GetMonthlyStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	year, okYear := pathInt(r, "year")
	month, okMonth := pathInt(r, "month")
	if !okYear || !okMonth {
		respondError(w, http.StatusBadRequest, "Invalid year or month")
		return
	}

	stats, err := h.service.MonthlyStats(r.Context(), userID, year, month)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// GetDailySummaries returns per-day summaries of a year
// GET /api/stats/daily/{year}
func (h *DashboardHandler) GetDailySummaries(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	year, ok := pathInt(r, "year")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid year")
		return
	}

	days, err := h.service.DailySummaries(r.Context(), userID, year)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"year": year,
		"days": days,
	})
}

// GetHourPattern returns the hour-of-day histogram of a year
// GET /api/stats/hours/{year}
func (h *DashboardHandler) GetHourPattern(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	year, ok := pathInt(r, "year")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid year")
		return
	}

	pattern, err := h.service.HourPattern(r.Context(), userID, year)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, pattern)
}
