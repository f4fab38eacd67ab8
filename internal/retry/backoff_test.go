package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExponentialBackoffIsCapped(t *testing.T) {
	p := Policy{Base: 10 * time.Millisecond, Cap: 50 * time.Millisecond}

	if got := p.ExponentialBackoff(0); got != 10*time.Millisecond {
		t.Fatalf("attempt 0: got %v", got)
	}
	if got := p.ExponentialBackoff(2); got != 40*time.Millisecond {
		t.Fatalf("attempt 2: got %v", got)
	}
	if got := p.ExponentialBackoff(10); got != 50*time.Millisecond {
		t.Fatalf("attempt 10: got %v", got)
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 3, Base: time.Millisecond}, func(error) bool { return true }, func(int) error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if calls != 2 {
		t.Fatalf("got %d calls, want 2", calls)
	}
}

func TestDoGivesUpAfterAttempts(t *testing.T) {
	calls := 0
	boom := errors.New("boom")

	err := Do(context.Background(), Policy{Attempts: 3, Base: time.Millisecond}, func(error) bool { return true }, func(int) error {
		calls++
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if calls != 3 {
		t.Fatalf("got %d calls, want 3", calls)
	}
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 5, Base: time.Millisecond}, func(error) bool { return false }, func(int) error {
		calls++
		return errors.New("permanent")
	})

	if err == nil || calls != 1 {
		t.Fatalf("got err=%v calls=%d", err, calls)
	}
}
