package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitConfig is a sliding window of Limit calls per Window
type RateLimitConfig struct {
	Key    string // e.g. "journal-api"
	Limit  int
	Window time.Duration
}

// JournalAPIRateLimit bounds calls to the external journal-listing endpoint
var JournalAPIRateLimit = RateLimitConfig{
	Key:    "journal-api",
	Limit:  20,
	Window: time.Second,
}

// RateLimiter enforces a RateLimitConfig across every process sharing the
// redis server. It admits everything when the client is disabled.
type RateLimiter struct {
	client    *Client
	namespace string
}

// NewRateLimiter creates a limiter whose keys live under namespace
func NewRateLimiter(client *Client, namespace string) *RateLimiter {
	return &RateLimiter{client: client, namespace: namespace}
}

// slidingWindow keeps one sorted-set member per admitted call.
// It returns {admitted, remaining, retry_after_ms}.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window)
		return {1, limit - count - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local wait = tonumber(oldest[2]) + window - now
	if wait < 1 then
		wait = 1
	end
	return {0, 0, wait}
`)

// Allow records one call if the window has room.
// It returns whether the call is admitted and how many calls remain.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	ok, remaining, _, err := r.take(ctx, cfg)
	return ok, remaining, err
}

// Wait blocks until a call is admitted or ctx is done
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		ok, _, retryAfter, err := r.take(ctx, cfg)
		if err != nil || ok {
			return err
		}

		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RateLimiter) take(ctx context.Context, cfg RateLimitConfig) (bool, int, time.Duration, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, 0, nil
	}

	now := time.Now()
	// members must be unique or calls in the same millisecond collapse
	member := fmt.Sprintf("%d", now.UnixNano())
	key := r.namespace + ":ratelimit:" + cfg.Key

	res, err := slidingWindow.Run(ctx, r.client.rdb, []string{key},
		now.UnixMilli(), cfg.Window.Milliseconds(), cfg.Limit, member,
	).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("rate limit %s: %w", cfg.Key, err)
	}

	return res[0] == 1, int(res[1]), time.Duration(res[2]) * time.Millisecond, nil
}
