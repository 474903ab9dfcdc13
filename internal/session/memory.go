package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryBackend keeps sessions in process. Used when redis is disabled,
// so sessions do not survive a restart.
type MemoryBackend struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryBackend creates an empty in-process backend. now may be nil.
func NewMemoryBackend(now func() time.Time) *MemoryBackend {
	if now == nil {
		now = time.Now
	}
	return &MemoryBackend{items: make(map[string]memoryItem), now: now}
}

// Get decodes the value stored under key into dest
func (b *MemoryBackend) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	b.mu.Lock()
	item, ok := b.items[key]
	if ok && !b.now().Before(item.expiresAt) {
		delete(b.items, key)
		ok = false
	}
	b.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(item.data, dest)
}

// Set stores value as JSON for ttl
func (b *MemoryBackend) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[key] = memoryItem{data: data, expiresAt: b.now().Add(ttl)}
	return nil
}

// Delete removes key
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.items, key)
	return nil
}
