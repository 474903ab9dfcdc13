package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mindjournal/internal/api/handlers"
	"github.com/wonny/mindjournal/internal/contracts"
	"github.com/wonny/mindjournal/internal/dashboard"
	"github.com/wonny/mindjournal/internal/heatmap"
	"github.com/wonny/mindjournal/internal/journal"
	"github.com/wonny/mindjournal/internal/realtime"
	"github.com/wonny/mindjournal/internal/session"
	"github.com/wonny/mindjournal/pkg/database"
	"github.com/wonny/mindjournal/pkg/logger"
)

const issuerKey = "issuer-secret"

var testNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	handler http.Handler
	hub     *realtime.Hub
}

func newTestAPI(t *testing.T, source contracts.RecordSource, limiter *ClientLimiter) *testAPI {
	t.Helper()
	log := logger.Nop()
	now := func() time.Time { return testNow }

	if source == nil {
		db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		source = journal.NewSQLiteStore(db)
	}

	hub := realtime.NewHub(log)
	t.Cleanup(hub.Close)

	svc := dashboard.NewService(source, heatmap.New(heatmap.Options{Now: now}), log, dashboard.Options{Hub: hub})
	sessions := session.NewManager(session.NewMemoryBackend(now), time.Hour, now)

	h := Handlers{
		Dashboard: handlers.NewDashboardHandler(svc, log),
		Journal:   handlers.NewJournalHandler(svc, log),
		Session:   handlers.NewSessionHandler(sessions, issuerKey, log),
		WS:        handlers.NewWSHandler(hub),
	}
	return &testAPI{handler: NewRouter(h, sessions, limiter, log), hub: hub}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(t *testing.T, userID string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"user_id":"`+userID+`"}`))
	req.Header.Set(handlers.IssuerKeyHeader, issuerKey)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var s session.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s.Token
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	rec := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestSession_IssuerKeyRequired(t *testing.T) {
	api := newTestAPI(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"user_id":"alice"}`))
	req.Header.Set(handlers.IssuerKeyHeader, "wrong")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSession_Logout(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	token := api.login(t, "alice")

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/heatmap/2024", token, nil).Code)
	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/api/session", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/heatmap/2024", token, nil).Code)
}

func TestHeatmap_RequiresSession(t *testing.T) {
	api := newTestAPI(t, nil, nil)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/heatmap/2024", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/heatmap/2024", "bogus", nil).Code)
}

func TestHeatmap_BadYear(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	token := api.login(t, "alice")

	tests := []struct {
		path string
		want int
	}{
		{"/api/heatmap/abc", http.StatusBadRequest},
		{"/api/heatmap/0", http.StatusBadRequest},
		{"/api/heatmap/10000", http.StatusBadRequest},
		{"/api/stats/monthly/2024/13", http.StatusBadRequest},
		{"/api/stats/hours/x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := api.do(t, http.MethodGet, tt.path, token, nil)
		assert.Equal(t, tt.want, rec.Code, tt.path)
	}
}

func TestJournalFlow(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	token := api.login(t, "alice")

	for _, date := range []string{"2024-03-08", "2024-03-09", ""} {
		body := map[string]interface{}{"content": "entry", "scores": map[string]int{"overall": 70}}
		if date != "" {
			body["date"] = date
		}
		rec := api.do(t, http.MethodPost, "/api/journal", token, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := api.do(t, http.MethodGet, "/api/heatmap/2024", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp contracts.HeatmapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.UserID)
	assert.Equal(t, 3, resp.TotalEntries)
	assert.Equal(t, contracts.StreakState{CurrentStreak: 3, LongestStreak: 3}, resp.Streak)

	cell := resp.Weeks[9][6] // Jan 1 + 69 days = Mar 10
	assert.Equal(t, contracts.NewDate(2024, time.March, 10), cell.Date)
	assert.Equal(t, "2024-03-10: 1 entry • avg score 70", cell.Tooltip)

	// another user sees nothing
	other := api.login(t, "bob")
	rec = api.do(t, http.MethodGet, "/api/heatmap/2024", other, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.TotalEntries)

	rec = api.do(t, http.MethodGet, "/api/stats/monthly/2024/3", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats contracts.MonthlyStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.DaysWithEntries)

	rec = api.do(t, http.MethodGet, "/api/stats/hours/2024", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pattern contracts.HourPattern
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pattern))
	assert.Equal(t, 3, pattern.Total)
	assert.Equal(t, 12, pattern.PeakHour)

	rec = api.do(t, http.MethodGet, "/api/stats/daily/2024", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"2024-03-09"`)
}

func TestJournal_CreateValidation(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	token := api.login(t, "alice")

	rec := api.do(t, http.MethodPost, "/api/journal", token, map[string]interface{}{"journal_type": "audio"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/journal", token, map[string]interface{}{"unknown": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/journal/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJournal_ReadOnlySource(t *testing.T) {
	fixtures := journal.NewFixtureSource(1, func() time.Time { return testNow })
	api := newTestAPI(t, fixtures, nil)
	token := api.login(t, "alice")

	rec := api.do(t, http.MethodPost, "/api/journal", token, map[string]interface{}{"content": "x"})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	rec = api.do(t, http.MethodDelete, "/api/journal/abc", token, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/heatmap/2024", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	api := newTestAPI(t, nil, NewClientLimiter(1, 2))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, api.do(t, http.MethodGet, "/health", "", nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestClientLimiter_PerClient(t *testing.T) {
	l := NewClientLimiter(1, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))

	now = now.Add(2 * idleClientTTL)
	l.Allow("c")
	assert.Len(t, l.clients, 1)
}

func TestWebSocket_ReceivesHeatmapOnWrite(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	token := api.login(t, "alice")

	server := httptest.NewServer(api.handler)
	defer server.Close()

	// unauthenticated upgrade is refused
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return api.hub.Subscribers("alice") == 1 }, time.Second, 10*time.Millisecond)

	rec := api.do(t, http.MethodPost, "/api/journal", token, map[string]interface{}{"content": "hi"})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var update struct {
		Type    string                    `json:"type"`
		Payload contracts.HeatmapResponse `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, realtime.UpdateHeatmap, update.Type)
	assert.Equal(t, 1, update.Payload.TotalEntries)
}
