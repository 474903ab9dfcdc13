package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wonny/mindjournal/pkg/logger"
)

// Update types pushed to dashboard clients
const (
	UpdateHeatmap      = "heatmap"
	UpdateEntryDeleted = "entry_deleted"
	UpdateStreakAtRisk = "streak_at_risk"
)

// subscriberBuffer is the number of updates a slow subscriber may lag behind
const subscriberBuffer = 16

// Update is one message for a user's open dashboards
type Update struct {
	Type    string      `json:"type"`
	UserID  string      `json:"user_id"`
	Payload interface{} `json:"payload,omitempty"`
	SentAt  time.Time   `json:"sent_at"`
}

// Hub fans updates out to per-user subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the update.
// ⭐ SSOT: dashboard push notifications go through the hub
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*Subscription]struct{}
	closed  bool
	dropped atomic.Uint64
	logger  *logger.Logger
}

// Subscription receives the updates of one user until closed
type Subscription struct {
	hub    *Hub
	userID string
	ch     chan Update
	once   sync.Once
}

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		logger: log.Component("realtime"),
	}
}

// Subscribe registers a new subscriber for userID.
// On a closed hub the returned subscription is already closed.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		hub:    h,
		userID: userID,
		ch:     make(chan Update, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	return sub
}

// C returns the update channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Update {
	return s.ch
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.remove(s)
}

// remove must be called with h.mu held
func (h *Hub) remove(s *Subscription) {
	if set, ok := h.subs[s.userID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.userID)
		}
	}
	s.once.Do(func() { close(s.ch) })
}

// Publish delivers u to every subscriber of u.UserID and returns how many received it
func (h *Hub) Publish(u Update) int {
	if u.SentAt.IsZero() {
		u.SentAt = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs[u.UserID] {
		select {
		case sub.ch <- u:
			delivered++
		default:
			h.dropped.Add(1)
			h.logger.WithFields(map[string]interface{}{
				"user_id": u.UserID,
				"type":    u.Type,
			}).Warn("Subscriber buffer full, dropping update")
		}
	}
	return delivered
}

// Subscribers returns the number of open subscriptions of userID
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Dropped returns the number of updates lost to slow subscribers
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close ends every subscription; later subscriptions start closed
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, set := range h.subs {
		for sub := range set {
			h.remove(sub)
		}
	}
}
