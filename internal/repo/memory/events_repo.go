package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/clubhub/internal/domain/event"
	"github.com/geocoder89/clubhub/internal/domain/registration"
)

// EventsRepo keeps aggregates in process. Reads and writes go through deep copies
// so callers never share state with the store.
type EventsRepo struct {
	mu    sync.RWMutex
	items map[string]event.Event
	// receipt number -> registration id
	receipts map[string]string
}

func NewEventsRepo() *EventsRepo {
	return &EventsRepo{
		items:    make(map[string]event.Event),
		receipts: make(map[string]string),
	}
}

func (r *EventsRepo) Ping(context.Context) error { return nil }

func (r *EventsRepo) Create(_ context.Context, e event.Event) (event.Event, error) {
	e.Revision = 0
	e.ClearChanges()

	r.mu.Lock()
	r.items[e.ID] = e.Clone()
	r.mu.Unlock()

	return e, nil
}

func (r *EventsRepo) Load(_ context.Context, id string) (event.Event, error) {
	r.mu.RLock()
	e, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	return e.Clone(), nil
}

// Save applies the pending changes if the stored revision still matches.
func (r *EventsRepo) Save(_ context.Context, e *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.items[e.ID]
	if !ok {
		return event.ErrNotFound
	}
	if cur.Revision != e.Revision {
		return event.ErrRevisionConflict
	}

	// check receipt numbers before touching anything so a failed save changes nothing
	claimed := map[string]bool{}
	for _, ch := range e.Changes() {
		if ch.Kind != event.RegistrationAdded || ch.Registration.Payment == nil {
			continue
		}
		n := ch.Registration.Payment.ReceiptNumber
		if _, taken := r.receipts[n]; taken || claimed[n] {
			return registration.ErrReceiptNumberTaken
		}
		claimed[n] = true
	}

	for _, ch := range e.Changes() {
		p := ch.Registration.Payment
		switch ch.Kind {
		case event.RegistrationAdded:
			if p != nil {
				r.receipts[p.ReceiptNumber] = ch.Registration.ID
			}
		case event.RegistrationRemoved:
			if p != nil {
				delete(r.receipts, p.ReceiptNumber)
			}
		}
	}

	next := e.Clone()
	next.Revision = cur.Revision + 1
	next.UpdatedAt = time.Now().UTC()
	r.items[e.ID] = next

	e.Revision = next.Revision
	e.UpdatedAt = next.UpdatedAt
	e.ClearChanges()
	return nil
}

func (r *EventsRepo) ListReviewRows(_ context.Context, status *registration.Status) ([]registration.ReviewRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]registration.ReviewRow, 0)
	for _, e := range r.items {
		out = append(out, e.ReviewRows()...)
	}
	return registration.FilterByStatus(out, status), nil
}
