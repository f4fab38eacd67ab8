package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/geocoder89/clubhub/internal/domain/event"
	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/observability"
)

const (
	eventsCollection   = "events"
	receiptsCollection = "receipt_numbers"
)

// EventsRepo stores each event as one document with its registrations embedded,
// so a save is a single conditional ReplaceOne.
type EventsRepo struct {
	db       *mongo.Database
	events   *mongo.Collection
	receipts *mongo.Collection
	prom     *observability.Prom
}

func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func NewEventsRepo(db *mongo.Database, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{
		db:       db,
		events:   db.Collection(eventsCollection),
		receipts: db.Collection(receiptsCollection),
		prom:     prom,
	}
}

func (r *EventsRepo) observe(op string, fn func() error) error {
	return r.prom.ObserveDB(op, fn)
}

func (r *EventsRepo) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

// EnsureIndexes is idempotent.
func (r *EventsRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "registrations.payment.status", Value: 1}}},
		{Keys: bson.D{{Key: "registrations.userId", Value: 1}}},
	})
	return err
}

func (r *EventsRepo) Create(ctx context.Context, e event.Event) (event.Event, error) {
	e.Revision = 0
	e.ClearChanges()

	err := r.observe("events.create", func() error {
		_, err := r.events.InsertOne(ctx, toDoc(&e))
		return err
	})
	if err != nil {
		return event.Event{}, err
	}
	return e, nil
}

func (r *EventsRepo) Load(ctx context.Context, id string) (event.Event, error) {
	var doc eventDoc

	err := r.observe("events.load", func() error {
		return r.events.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}
	return doc.toDomain(), nil
}

// Save reserves new receipt numbers, then replaces the document only if the revision
// is unchanged. Reservations are released if the replace does not happen.
func (r *EventsRepo) Save(ctx context.Context, e *event.Event) error {
	var added, removed []string
	for _, ch := range e.Changes() {
		p := ch.Registration.Payment
		if p == nil {
			continue
		}
		switch ch.Kind {
		case event.RegistrationAdded:
			added = append(added, p.ReceiptNumber)
		case event.RegistrationRemoved:
			removed = append(removed, p.ReceiptNumber)
		}
	}

	reserved, err := r.reserve(ctx, e, added)
	if err != nil {
		return err
	}

	next := toDoc(e)
	next.Revision = e.Revision + 1
	next.UpdatedAt = time.Now().UTC()

	err = r.observe("events.save", func() error {
		res, err := r.events.ReplaceOne(ctx, bson.M{"_id": e.ID, "revision": e.Revision}, next)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return event.ErrRevisionConflict
		}
		return nil
	})

	if err != nil {
		r.release(ctx, reserved)
		return err
	}

	r.release(ctx, removed)

	e.Revision = next.Revision
	e.UpdatedAt = next.UpdatedAt
	e.ClearChanges()
	return nil
}

func (r *EventsRepo) reserve(ctx context.Context, e *event.Event, numbers []string) ([]string, error) {
	reserved := make([]string, 0, len(numbers))

	for _, n := range numbers {
		regID := ""
		for _, reg := range e.Registrations {
			if reg.Payment != nil && reg.Payment.ReceiptNumber == n {
				regID = reg.ID
			}
		}

		err := r.observe("receipt_numbers.reserve", func() error {
			_, err := r.receipts.InsertOne(ctx, receiptNumberDoc{
				Number:         n,
				EventID:        e.ID,
				RegistrationID: regID,
				ReservedAt:     time.Now().UTC(),
			})
			return err
		})

		if err != nil {
			r.release(ctx, reserved)
			if mongo.IsDuplicateKeyError(err) {
				return nil, registration.ErrReceiptNumberTaken
			}
			return nil, err
		}
		reserved = append(reserved, n)
	}
	return reserved, nil
}

// release is best effort; a leaked reservation only burns a number.
func (r *EventsRepo) release(ctx context.Context, numbers []string) {
	if len(numbers) == 0 {
		return
	}
	_ = r.observe("receipt_numbers.release", func() error {
		_, err := r.receipts.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": numbers}})
		return err
	})
}

func (r *EventsRepo) ListReviewRows(ctx context.Context, status *registration.Status) ([]registration.ReviewRow, error) {
	filter := bson.M{"registrations.payment": bson.M{"$exists": true}}
	if status != nil {
		filter = bson.M{"registrations.payment.status": string(*status)}
	}

	var docs []eventDoc
	err := r.observe("events.list_review", func() error {
		cur, err := r.events.Find(ctx, filter)
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	out := make([]registration.ReviewRow, 0)
	for _, d := range docs {
		e := d.toDomain()
		out = append(out, e.ReviewRows()...)
	}
	return registration.FilterByStatus(out, status), nil
}
