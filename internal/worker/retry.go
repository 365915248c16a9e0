package worker

import (
	"context"
	"time"
)

// RetryPolicy spaces out repeated attempts at a failing step, such as reading
// tomorrow's bookings for the reminder run. Zero fields fall back to a one
// second first delay doubling on every attempt.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay is the pause before retry number attempt, counting from 1.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	delay := r.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 1 {
		factor = 2
	}

	for i := 1; i < attempt; i++ {
		if r.MaxDelay > 0 && delay >= r.MaxDelay {
			break
		}
		delay = time.Duration(float64(delay) * factor)
	}
	if r.MaxDelay > 0 && delay > r.MaxDelay {
		delay = r.MaxDelay
	}
	return delay
}

// Do runs fn until it succeeds, MaxRetries retries are spent or ctx ends.
// It returns the last error.
func (r RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	for attempt := 1; err != nil && attempt <= r.MaxRetries; attempt++ {
		timer := time.NewTimer(r.NextDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		err = fn(ctx)
	}
	return err
}
