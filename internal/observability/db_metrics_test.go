package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/geocoder89/clubhub/internal/apperr"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&pgconn.PgError{Code: "23505"}, "unique_violation"},
		{fmt.Errorf("save: %w", &pgconn.PgError{Code: "40P01"}), "deadlock"},
		{apperr.New(apperr.Conflict, "stale"), "conflict"},
		{context.DeadlineExceeded, "timeout"},
		{errors.New("connection refused"), "connection"},
		{errors.New("boom"), "unknown"},
	}

	for _, tc := range tests {
		if got := classifyDBErr(tc.err); got != tc.want {
			t.Fatalf("classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestObserveDBNilReceiver(t *testing.T) {
	var p *Prom
	called := false

	err := p.ObserveDB("op", func() error {
		called = true
		return nil
	})

	if err != nil || !called {
		t.Fatalf("expected fn to run, err=%v", err)
	}
}
