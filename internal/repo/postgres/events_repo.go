package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/clubhub/internal/domain/event"
	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/observability"
)

type EventsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *EventsRepo) observe(op string, fn func() error) error {
	return r.prom.ObserveDB(op, fn)
}

func (r *EventsRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *EventsRepo) Create(ctx context.Context, e event.Event) (event.Event, error) {
	err := r.observe("events.create", func() error {
		_, err := r.pool.Exec(ctx, `
		INSERT INTO events (id, title, description, location, category, start_at, cancelled,
			requires_payment, payment_amount, revision, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,0,$10,$11)`,
			e.ID, e.Title, e.Description, e.Location, e.Category, e.StartAt, e.Cancelled,
			e.RequiresPayment, e.PaymentAmount, e.CreatedAt, e.UpdatedAt)
		return err
	})

	if err != nil {
		return event.Event{}, err
	}

	e.Revision = 0
	e.ClearChanges()
	return e, nil
}

// Load reads the aggregate: the event row plus its registrations in registration order.
func (r *EventsRepo) Load(ctx context.Context, id string) (e event.Event, err error) {
	err = r.observe("events.load", func() error {
		return r.pool.QueryRow(ctx, `
		SELECT id, title, description, location, category, start_at, cancelled,
			requires_payment, payment_amount::float8, revision, created_at, updated_at
		FROM events WHERE id = $1`, id).
			Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.Category, &e.StartAt, &e.Cancelled,
				&e.RequiresPayment, &e.PaymentAmount, &e.Revision, &e.CreatedAt, &e.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			err = event.ErrNotFound
		}
		return
	}

	var rows pgx.Rows
	err = r.observe("events.load.registrations", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, `SELECT `+registrationColumns+`
		FROM registrations WHERE event_id = $1 ORDER BY seq ASC`, id)
		return qerr
	})

	if err != nil {
		return
	}

	defer rows.Close()

	e.Registrations = make([]registration.Registration, 0)
	for rows.Next() {
		reg, scanErr := scanRegistration(rows)

		if scanErr != nil {
			err = scanErr
			return
		}
		e.Registrations = append(e.Registrations, reg)
	}

	err = rows.Err()
	return
}

// Save commits the aggregate's pending changes in one transaction, conditioned on the
// revision the aggregate was loaded at. On success the revision is bumped and changes cleared.
func (r *EventsRepo) Save(ctx context.Context, e *event.Event) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = r.observe("events.save.revision", func() error {
		tag, execErr := tx.Exec(ctx, `
		UPDATE events
			SET title = $3,
				description = $4,
				location = $5,
				category = $6,
				start_at = $7,
				cancelled = $8,
				requires_payment = $9,
				payment_amount = $10,
				revision = revision + 1,
				updated_at = NOW()
		WHERE id = $1 AND revision = $2`,
			e.ID, e.Revision, e.Title, e.Description, e.Location, e.Category, e.StartAt, e.Cancelled,
			e.RequiresPayment, e.PaymentAmount)

		if execErr != nil {
			return execErr
		}
		if tag.RowsAffected() == 0 {
			return event.ErrRevisionConflict
		}
		return nil
	})

	if err != nil {
		return
	}

	for _, ch := range e.Changes() {
		switch ch.Kind {
		case event.RegistrationAdded:
			err = r.observe("registrations.insert", func() error {
				return insertRegistration(ctx, tx, ch.Registration)
			})
		case event.RegistrationRemoved:
			err = r.observe("registrations.delete", func() error {
				return deleteRegistration(ctx, tx, e.ID, ch.Registration.ID)
			})
		case event.PaymentUpdated:
			err = r.observe("registrations.update_payment", func() error {
				return updatePayment(ctx, tx, e.ID, ch.Registration)
			})
		default:
			err = fmt.Errorf("unknown change kind %d", ch.Kind)
		}

		if err != nil {
			return
		}
	}

	err = tx.Commit(ctx)

	if err != nil {
		return
	}

	e.Revision++
	e.ClearChanges()
	return
}

// ListReviewRows returns every registration carrying a receipt, optionally for one status.
// Ordering is left to the caller.
func (r *EventsRepo) ListReviewRows(ctx context.Context, status *registration.Status) (out []registration.ReviewRow, err error) {
	query := `
	SELECT e.id, e.title, e.start_at, r.id, r.user_id, r.name, r.email,
		r.receipt_number, r.amount::float8, COALESCE(r.payment_method, ''), r.payment_status,
		r.registered_at, COALESCE(r.receipt_url, '')
	FROM registrations r
	JOIN events e ON e.id = r.event_id
	WHERE r.receipt_number IS NOT NULL`

	var args []any
	if status != nil {
		query += ` AND r.payment_status = $1`
		args = append(args, string(*status))
	}

	var rows pgx.Rows
	err = r.observe("registrations.list_review", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, query, args...)
		return qerr
	})

	if err != nil {
		return
	}

	defer rows.Close()

	out = make([]registration.ReviewRow, 0)
	for rows.Next() {
		var row registration.ReviewRow
		var st string

		err = rows.Scan(&row.EventID, &row.EventTitle, &row.EventDate, &row.RegistrationID, &row.UserID,
			&row.UserName, &row.UserEmail, &row.ReceiptNumber, &row.Amount, &row.PaymentMethod, &st,
			&row.RegisteredAt, &row.ReceiptURL)

		if err != nil {
			return
		}

		row.Status = registration.Status(st)
		out = append(out, row)
	}

	err = rows.Err()
	return
}
