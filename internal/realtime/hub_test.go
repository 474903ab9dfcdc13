package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/wonny/mindjournal/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHub_PublishToUser(t *testing.T) {
	hub := NewHub(logger.Nop())
	defer hub.Close()

	alice := hub.Subscribe("alice")
	alice2 := hub.Subscribe("alice")
	bob := hub.Subscribe("bob")

	n := hub.Publish(Update{Type: UpdateHeatmap, UserID: "alice", Payload: 3})
	assert.Equal(t, 2, n)

	for _, sub := range []*Subscription{alice, alice2} {
		select {
		case u := <-sub.C():
			assert.Equal(t, UpdateHeatmap, u.Type)
			assert.Equal(t, 3, u.Payload)
			assert.False(t, u.SentAt.IsZero())
		default:
			t.Fatal("expected an update")
		}
	}

	select {
	case u := <-bob.C():
		t.Fatalf("bob received %+v", u)
	default:
	}
}

func TestHub_CloseSubscription(t *testing.T) {
	hub := NewHub(logger.Nop())
	defer hub.Close()

	sub := hub.Subscribe("alice")
	assert.Equal(t, 1, hub.Subscribers("alice"))

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Subscribers("alice"))
	assert.Equal(t, 0, hub.Publish(Update{UserID: "alice"}))

	_, ok := <-sub.C()
	assert.False(t, ok)
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	hub := NewHub(logger.Nop())
	defer hub.Close()

	sub := hub.Subscribe("alice")
	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(Update{UserID: "alice", Payload: i})
	}

	assert.Equal(t, uint64(5), hub.Dropped())
	assert.Len(t, sub.C(), subscriberBuffer)

	// the oldest updates are kept
	u := <-sub.C()
	assert.Equal(t, 0, u.Payload)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(logger.Nop())
	sub := hub.Subscribe("alice")

	hub.Close()
	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Subscribers("alice"))

	late := hub.Subscribe("alice")
	_, ok = <-late.C()
	assert.False(t, ok)
	late.Close()
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestServeWS(t *testing.T) {
	hub := NewHub(logger.Nop())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "alice")
	}))
	defer server.Close()

	conn := dial(t, server)
	require.Eventually(t, func() bool { return hub.Subscribers("alice") == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(Update{Type: UpdateStreakAtRisk, UserID: "alice", Payload: map[string]int{"current_streak": 4}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got struct {
		Type    string         `json:"type"`
		UserID  string         `json:"user_id"`
		Payload map[string]int `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, UpdateStreakAtRisk, got.Type)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, 4, got.Payload["current_streak"])

	// client hangs up: the server side must unsubscribe
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers("alice") == 0 }, 2*time.Second, 10*time.Millisecond)
	hub.Close()
}

func TestServeWS_HubShutdown(t *testing.T) {
	hub := NewHub(logger.Nop())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "bob")
	}))
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers("bob") == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
