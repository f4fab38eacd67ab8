package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/geocoder89/clubhub/internal/domain/event"
	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/observability"
	"github.com/geocoder89/clubhub/internal/retry"
)

// EventStore persists the Event aggregate. Implemented by repo/postgres, repo/mongodb and repo/memory.
type EventStore interface {
	Create(ctx context.Context, e event.Event) (event.Event, error)
	Load(ctx context.Context, id string) (event.Event, error)
	// Save commits pending changes if the revision is unchanged, else event.ErrRevisionConflict.
	Save(ctx context.Context, e *event.Event) error
	ListReviewRows(ctx context.Context, status *registration.Status) ([]registration.ReviewRow, error)
}

var conflictPolicy = retry.Policy{
	Attempts: 4,
	Base:     15 * time.Millisecond,
	Cap:      200 * time.Millisecond,
	Jitter:   20 * time.Millisecond,
}

func retryableSave(err error) bool {
	return errors.Is(err, event.ErrRevisionConflict) || errors.Is(err, registration.ErrReceiptNumberTaken)
}

// mutate loads the event, applies fn and saves it, starting over from fresh state
// when the save loses a race. fn must be safe to run more than once.
func mutate(ctx context.Context, store EventStore, prom *observability.Prom, op, eventID string, fn func(e *event.Event) error) (event.Event, error) {
	var saved event.Event

	err := retry.Do(ctx, conflictPolicy, retryableSave, func(attempt int) error {
		if attempt > 0 {
			prom.IncConflictRetry(op)
			slog.Default().DebugContext(ctx, "event.save_retry", "op", op, "event_id", eventID, "attempt", attempt)
		}

		e, err := store.Load(ctx, eventID)
		if err != nil {
			return err
		}

		if err := fn(&e); err != nil {
			return err
		}

		if err := store.Save(ctx, &e); err != nil {
			return err
		}

		saved = e
		return nil
	})

	return saved, err
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return observability.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
