package services

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/geocoder89/clubhub/internal/domain/event"
	"github.com/geocoder89/clubhub/internal/domain/user"
	"github.com/geocoder89/clubhub/internal/observability"
)

// EventService is the minimal event management surface registrations hang off.
type EventService struct {
	events EventStore
	prom   *observability.Prom
}

func NewEventService(events EventStore, prom *observability.Prom) *EventService {
	return &EventService{events: events, prom: prom}
}

func (s *EventService) Create(ctx context.Context, actor user.Actor, req event.CreateEventRequest) (e event.Event, err error) {
	ctx, span := startSpan(ctx, "event.create")
	defer func() { endSpan(span, err) }()

	err = actor.RequireAdmin()
	if err != nil {
		return
	}

	e, err = s.events.Create(ctx, event.NewFromCreateRequest(req))
	if err != nil {
		return
	}

	slog.Default().InfoContext(ctx, "event.created", "event_id", e.ID, "requires_payment", e.PaymentRequired())
	return e, nil
}

func (s *EventService) Get(ctx context.Context, id string) (v event.View, err error) {
	ctx, span := startSpan(ctx, "event.get", attribute.String("event.id", id))
	defer func() { endSpan(span, err) }()

	e, err := s.events.Load(ctx, id)
	if err != nil {
		return
	}
	return e.View(), nil
}

// Cancel closes the event to new registrations; existing ones are kept.
func (s *EventService) Cancel(ctx context.Context, actor user.Actor, id string) (v event.View, err error) {
	ctx, span := startSpan(ctx, "event.cancel", attribute.String("event.id", id))
	defer func() { endSpan(span, err) }()

	err = actor.RequireAdmin()
	if err != nil {
		return
	}

	e, err := mutate(ctx, s.events, s.prom, "cancel", id, func(e *event.Event) error {
		e.Cancel()
		return nil
	})
	if err != nil {
		return
	}

	slog.Default().InfoContext(ctx, "event.cancelled", "event_id", id)
	return e.View(), nil
}
