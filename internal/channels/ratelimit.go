package channels

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket guarding outbound API calls. It admits a
// burst of up to the bucket capacity, then refills at a steady per-second
// rate. This is separate from command throttling: it protects the platform
// API quota, not the user-facing command budget.
type RateLimiter struct {
	mu sync.Mutex

	// rate is tokens added per second.
	rate float64

	// burst is the bucket capacity.
	burst int

	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a limiter admitting rate operations per second
// with the given burst capacity. The bucket starts full.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return &RateLimiter{
		rate:       rate,
		burst:      burst,
		tokens:     float64(burst),
		lastRefill: time.Now(),
	}
}

// Allow consumes a token if one is available.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		if r.Allow() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.nextToken()):
		}
	}
}

// Tokens returns the currently available token count.
func (r *RateLimiter) Tokens() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	return r.tokens
}

// refill credits tokens for the time elapsed since the last refill.
// Must be called with the lock held.
func (r *RateLimiter) refill() {
	now := time.Now()
	r.tokens += now.Sub(r.lastRefill).Seconds() * r.rate
	if r.tokens > float64(r.burst) {
		r.tokens = float64(r.burst)
	}
	r.lastRefill = now
}

// nextToken returns how long until one token is available.
func (r *RateLimiter) nextToken() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens >= 1 {
		return 0
	}
	needed := 1 - r.tokens
	return time.Duration(needed / r.rate * float64(time.Second))
}
