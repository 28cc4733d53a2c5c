package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitWindow = time.Minute

// RateLimiter counts requests per scope and client in fixed one-minute
// windows. Every window has its own key so counts never carry over.
type RateLimiter struct {
	client *Client
	scope  string
	limit  int64
	now    func() time.Time
}

// NewRateLimiter allows requestsPerMinute+burst requests per window
func NewRateLimiter(client *Client, scope string, requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		client: client,
		scope:  scope,
		limit:  int64(requestsPerMinute + burst),
		now:    time.Now,
	}
}

func (r *RateLimiter) key(client string, window time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", r.scope, client, window.Unix())
}

// Allow counts one request for client and reports whether it fits the
// current window
func (r *RateLimiter) Allow(ctx context.Context, client string) (allowed bool, remaining int, reset time.Time, err error) {
	window := r.now().Truncate(rateLimitWindow)
	key := r.key(client, window)

	var count *redis.IntCmd
	_, err = r.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		// keep the key one extra window so late requests still see it
		pipe.ExpireNX(ctx, key, 2*rateLimitWindow)
		return nil
	})
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("failed to count request: %w", err)
	}

	left := r.limit - count.Val()
	if left < 0 {
		left = 0
	}
	return count.Val() <= r.limit, int(left), window.Add(rateLimitWindow), nil
}

// Reset clears the current window of client
func (r *RateLimiter) Reset(ctx context.Context, client string) error {
	return r.client.rdb.Del(ctx, r.key(client, r.now().Truncate(rateLimitWindow))).Err()
}
