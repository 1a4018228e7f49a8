package redis

import (
	"context"
	"time"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter allows Limit requests per identifier per fixed window.
type RateLimiter struct {
	cache  *Cache
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter creates a limiter. window <= 0 uses TTLRateLimitWindow.
func NewRateLimiter(cache *Cache, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = TTLRateLimitWindow
	}
	return &RateLimiter{cache: cache, limit: limit, window: window, now: time.Now}
}

// Allow counts one request for identifier.
func (r *RateLimiter) Allow(ctx context.Context, identifier string) (Decision, error) {
	now := r.now()
	start := now.Truncate(r.window)

	n, err := r.cache.IncrWithTTL(ctx, RateLimitKey(identifier, start), r.window)
	if err != nil {
		return Decision{}, err
	}
	return decide(int(n), r.limit, start.Add(r.window).Sub(now)), nil
}

func decide(count, limit int, untilReset time.Duration) Decision {
	d := Decision{Limit: limit, Allowed: count <= limit}
	if remaining := limit - count; remaining > 0 {
		d.Remaining = remaining
	}
	if !d.Allowed {
		d.RetryAfter = untilReset
	}
	return d
}
