package connector

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit describes the outbound request budget of a connector.
type RateLimit struct {
	// MaxRequests is the number of requests allowed per Window.
	// Zero disables the budget.
	MaxRequests int
	// Window is the period over which MaxRequests applies.
	Window time.Duration
	// MinInterval is the minimum spacing between two consecutive grants.
	MinInterval time.Duration
}

// RateLimiter bounds the rate of outbound requests.
// Acquire never fails a call because of the budget; it only delays it.
type RateLimiter struct {
	mu          sync.Mutex
	bucket      *rate.Limiter
	minInterval time.Duration
	next        time.Time // earliest time the next grant may happen due to MinInterval
	clock       Clock
}

// NewRateLimiter creates a rate limiter for the given budget.
// A nil clock falls back to SystemClock.
func NewRateLimiter(cfg RateLimit, clock Clock) *RateLimiter {
	if clock == nil {
		clock = SystemClock{}
	}

	limiter := &RateLimiter{
		minInterval: cfg.MinInterval,
		clock:       clock,
	}

	if cfg.MaxRequests > 0 && cfg.Window > 0 {
		every := cfg.Window / time.Duration(cfg.MaxRequests)
		limiter.bucket = rate.NewLimiter(rate.Every(every), cfg.MaxRequests)
	}

	return limiter
}

// Acquire blocks until a request slot is available.
// The only error it returns is the context's, when the caller stops waiting.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	now := r.clock.Now()

	var delay time.Duration
	var reservation *rate.Reservation
	if r.bucket != nil {
		// n=1 never exceeds the burst, so the reservation is always OK.
		reservation = r.bucket.ReserveN(now, 1)
		delay = reservation.DelayFrom(now)
	}

	if r.minInterval > 0 && !r.next.IsZero() {
		if gap := r.next.Sub(now); gap > delay {
			delay = gap
		}
	}

	granted := now.Add(delay)
	prevNext := r.next
	if r.minInterval > 0 {
		r.next = granted.Add(r.minInterval)
	}
	r.mu.Unlock()

	if delay <= 0 {
		return nil
	}

	if err := r.clock.Sleep(ctx, delay); err != nil {
		r.mu.Lock()
		if reservation != nil {
			reservation.CancelAt(r.clock.Now())
		}
		if r.next.Equal(granted.Add(r.minInterval)) {
			r.next = prevNext
		}
		r.mu.Unlock()
		return err
	}

	return nil
}
