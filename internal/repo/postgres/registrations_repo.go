package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/geocoder89/clubhub/internal/domain/event"
	"github.com/geocoder89/clubhub/internal/domain/registration"
)

// child-row writers used by EventsRepo.Save, always inside its transaction

const registrationColumns = `id, event_id, user_id, name, email, matric_number, phone, notes, registered_at,
	receipt_number, amount::float8, payment_method, receipt_url, receipt_key, payment_status,
	generated_at, verified_at, rejection_reason, reviewed_by, reviewed_at`

func insertRegistration(ctx context.Context, tx pgx.Tx, reg registration.Registration) error {
	var (
		number, method, url, key, status, reason, reviewer *string
		amount                                             *float64
		generatedAt, verifiedAt, reviewedAt                *time.Time
	)

	if p := reg.Payment; p != nil {
		st := string(p.Status)
		number, method, url, key, status = &p.ReceiptNumber, &p.PaymentMethod, &p.ReceiptURL, &p.ReceiptKey, &st
		reason, reviewer = &p.RejectionReason, &p.ReviewedBy
		amount = &p.Amount
		generatedAt, verifiedAt, reviewedAt = &p.GeneratedAt, p.VerifiedAt, p.ReviewedAt
	}

	_, err := tx.Exec(ctx, `
	INSERT INTO registrations (id, event_id, user_id, name, email, matric_number, phone, notes, registered_at,
		receipt_number, amount, payment_method, receipt_url, receipt_key, payment_status,
		generated_at, verified_at, rejection_reason, reviewed_by, reviewed_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		reg.ID, reg.EventID, reg.UserID, reg.Name, reg.Email, reg.MatricNumber, reg.Phone, reg.Notes, reg.RegisteredAt,
		number, amount, method, url, key, status,
		generatedAt, verifiedAt, reason, reviewer, reviewedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "registrations_receipt_number_uniq":
				return registration.ErrReceiptNumberTaken
			case "registrations_event_user_uniq":
				return registration.ErrAlreadyRegistered
			}
		}
		return err
	}

	return nil
}

func deleteRegistration(ctx context.Context, tx pgx.Tx, eventID, registrationID string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM registrations WHERE id = $1 AND event_id = $2`, registrationID, eventID)
	if err != nil {
		return err
	}

	// the revision check passed, so a missing row means the aggregate was stale
	if tag.RowsAffected() == 0 {
		return event.ErrRevisionConflict
	}
	return nil
}

// updatePayment writes the receipt review fields; it only applies if the registration still exists.
func updatePayment(ctx context.Context, tx pgx.Tx, eventID string, reg registration.Registration) error {
	p := reg.Payment
	if p == nil {
		return registration.ErrNoReceipt
	}

	tag, err := tx.Exec(ctx, `
	UPDATE registrations
		SET payment_status = $3,
			verified_at = $4,
			rejection_reason = $5,
			reviewed_by = $6,
			reviewed_at = $7
	WHERE id = $1 AND event_id = $2 AND receipt_number IS NOT NULL`,
		reg.ID, eventID, string(p.Status), p.VerifiedAt, p.RejectionReason, p.ReviewedBy, p.ReviewedAt)

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return registration.ErrNotFound
	}
	return nil
}

func scanRegistration(row pgx.Row) (registration.Registration, error) {
	var (
		r                                                  registration.Registration
		number, method, url, key, status, reason, reviewer *string
		amount                                             *float64
		generatedAt, verifiedAt, reviewedAt                *time.Time
	)

	err := row.Scan(&r.ID, &r.EventID, &r.UserID, &r.Name, &r.Email, &r.MatricNumber, &r.Phone, &r.Notes, &r.RegisteredAt,
		&number, &amount, &method, &url, &key, &status,
		&generatedAt, &verifiedAt, &reason, &reviewer, &reviewedAt)

	if err != nil {
		return registration.Registration{}, err
	}

	if number != nil {
		p := &registration.PaymentReceipt{
			ReceiptNumber:   *number,
			Amount:          deref(amount),
			PaymentMethod:   deref(method),
			ReceiptURL:      deref(url),
			ReceiptKey:      deref(key),
			Status:          registration.Status(deref(status)),
			GeneratedAt:     deref(generatedAt),
			VerifiedAt:      verifiedAt,
			RejectionReason: deref(reason),
			ReviewedBy:      deref(reviewer),
			ReviewedAt:      reviewedAt,
		}
		r.Payment = p
	}

	return r, nil
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// 22P02: a malformed uuid can never match a row
func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
