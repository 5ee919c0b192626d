package connector

import (
	"context"
	"time"
)

// RetryPolicy retries transient failures with exponential backoff.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps any single backoff delay.
	MaxDelay time.Duration
}

// Backoff returns the delay before retry number attempt (starting at 0):
// min(BaseDelay * 2^attempt, MaxDelay).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}

	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}

	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Do runs fn until it succeeds, fails with a non-transient error, or the retries
// are exhausted. The error returned is exactly the one fn returned last.
func (p RetryPolicy) Do(ctx context.Context, clock Clock, fn func(ctx context.Context) error) error {
	if clock == nil {
		clock = SystemClock{}
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}

		if !IsTransient(err) || attempt >= p.MaxRetries {
			return err
		}

		if sleepErr := clock.Sleep(ctx, p.Backoff(attempt)); sleepErr != nil {
			// Caller gave up; report what actually failed.
			return err
		}
	}
}
