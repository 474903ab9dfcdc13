package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/mindjournal/internal/api/handlers"
	"github.com/wonny/mindjournal/internal/session"
	"github.com/wonny/mindjournal/pkg/logger"
)

// Handlers groups the endpoint handlers
type Handlers struct {
	Dashboard *handlers.DashboardHandler
	Journal   *handlers.JournalHandler
	Session   *handlers.SessionHandler
	WS        *handlers.WSHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routing lives in this function
func NewRouter(h Handlers, sessions *session.Manager, limiter *ClientLimiter, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Session issuing is authenticated by the issuer key, not a session
	r.HandleFunc("/api/session", h.Session.Create).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware(sessions))

	api.HandleFunc("/session", h.Session.Delete).Methods("DELETE")

	// Dashboard endpoints
	api.HandleFunc("/heatmap/{year}", h.Dashboard.GetHeatmap).Methods("GET")
	api.HandleFunc("/stats/monthly/{year}/{month}", h.Dashboard.GetMonthlyStats).Methods("GET")
	api.HandleFunc("/stats/daily/{year}", h.Dashboard.GetDailySummaries).Methods("GET")
	api.HandleFunc("/stats/hours/{year}", h.Dashboard.GetHourPattern).Methods("GET")

	// Journal endpoints
	api.HandleFunc("/journal", h.Journal.Create).Methods("POST")
	api.HandleFunc("/journal/{id}", h.Journal.Delete).Methods("DELETE")

	// Realtime updates
	r.Handle("/ws", authMiddleware(sessions)(http.HandlerFunc(h.WS.Serve))).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	if limiter != nil {
		r.Use(limiter.Middleware)
	}

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "mindjournal-api",
	})
}

// authMiddleware resolves the bearer token into a session
func authMiddleware(sessions *session.Manager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := sessions.Load(r.Context(), handlers.BearerToken(r))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithContext(r.Context(), s)))
		})
	}
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is required by the websocket upgrade
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					writeError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
