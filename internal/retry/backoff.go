package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

type Policy struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
	// upper bound of random jitter added to every delay
	Jitter time.Duration
}

// ExponentialBackoff returns the delay before retry number attempt (0-based).
// attempt=0 => base, attempt=1 => 2*base, attempt=2 => 4*base, capped.
func (p Policy) ExponentialBackoff(attempt int) time.Duration {
	multiple := math.Pow(2, float64(attempt))
	delay := time.Duration(float64(p.Base) * multiple)

	if p.Cap > 0 && delay > p.Cap {
		delay = p.Cap
	}

	// small jitter to avoid thundering herd
	if p.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.Jitter)))
	}
	return delay
}

// Do runs fn until it succeeds, returns an error retryable rejects, or attempts run out.
// The last error is returned as is.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(attempt int) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn(attempt)

		if err == nil || !retryable(err) || attempt == attempts-1 {
			return err
		}

		t := time.NewTimer(p.ExponentialBackoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
	return err
}
