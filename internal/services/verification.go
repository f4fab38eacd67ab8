package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/geocoder89/clubhub/internal/domain/event"
	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/domain/user"
	"github.com/geocoder89/clubhub/internal/notifications"
	"github.com/geocoder89/clubhub/internal/observability"
)

// VerificationService is the admin payment review workflow.
type VerificationService struct {
	events   EventStore
	notifier notifications.Notifier
	prom     *observability.Prom
	now      func() time.Time
}

func NewVerificationService(events EventStore, notifier notifications.Notifier, prom *observability.Prom) *VerificationService {
	return &VerificationService{
		events:   events,
		notifier: notifier,
		prom:     prom,
		now:      time.Now,
	}
}

func (s *VerificationService) Approve(ctx context.Context, eventID, registrationID string, actor user.Actor) (registration.PaymentReceipt, error) {
	return s.decide(ctx, "payment.approve", eventID, registrationID, actor, func(e *event.Event) (registration.PaymentReceipt, error) {
		return e.ApprovePayment(registrationID, actor.ID, s.now())
	})
}

// Reject records the trimmed reason; an empty reason is allowed.
func (s *VerificationService) Reject(ctx context.Context, eventID, registrationID, reason string, actor user.Actor) (registration.PaymentReceipt, error) {
	return s.decide(ctx, "payment.reject", eventID, registrationID, actor, func(e *event.Event) (registration.PaymentReceipt, error) {
		return e.RejectPayment(registrationID, reason, actor.ID, s.now())
	})
}

func (s *VerificationService) decide(ctx context.Context, op, eventID, registrationID string, actor user.Actor, apply func(e *event.Event) (registration.PaymentReceipt, error)) (p registration.PaymentReceipt, err error) {
	ctx, span := startSpan(ctx, op,
		attribute.String("event.id", eventID),
		attribute.String("registration.id", registrationID),
	)
	defer func() { endSpan(span, err) }()

	err = actor.RequireAdmin()
	if err != nil {
		return
	}

	var (
		reg   registration.Registration
		title string
	)

	_, err = mutate(ctx, s.events, s.prom, op, eventID, func(e *event.Event) error {
		updated, err := apply(e)
		if err != nil {
			return err
		}

		p = updated
		reg, _ = e.FindByID(registrationID)
		title = e.Title
		return nil
	})

	if err != nil {
		return registration.PaymentReceipt{}, err
	}

	s.prom.IncPaymentDecision(string(p.Status))
	slog.Default().InfoContext(ctx, "payment.decision",
		"event_id", eventID,
		"registration_id", registrationID,
		"receipt_number", p.ReceiptNumber,
		"status", p.Status,
	)

	s.notify(ctx, eventID, title, reg, p)
	return p, nil
}

// notify is best effort; the decision is already committed.
func (s *VerificationService) notify(ctx context.Context, eventID, title string, reg registration.Registration, p registration.PaymentReceipt) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.SendPaymentDecision(context.WithoutCancel(ctx), notifications.PaymentDecisionInput{
		Email:         reg.Email,
		Name:          reg.Name,
		EventID:       eventID,
		EventTitle:    title,
		ReceiptNumber: p.ReceiptNumber,
		Status:        string(p.Status),
		Reason:        p.RejectionReason,
	})

	if err != nil {
		slog.Default().WarnContext(ctx, "payment.notify_failed",
			"event_id", eventID,
			"registration_id", reg.ID,
			"err", err,
		)
	}
}

// ListForReview returns receipts across all events: pending first, newest first within a status.
// status may be empty for all; anything else must name a known status.
func (s *VerificationService) ListForReview(ctx context.Context, actor user.Actor, status string) (rows []registration.ReviewRow, err error) {
	ctx, span := startSpan(ctx, "payment.list_for_review", attribute.String("status", status))
	defer func() { endSpan(span, err) }()

	err = actor.RequireAdmin()
	if err != nil {
		return
	}

	var filter *registration.Status
	if strings.TrimSpace(status) != "" {
		st, parseErr := registration.ParseStatus(status)
		if parseErr != nil {
			err = parseErr
			return
		}
		filter = &st
	}

	rows, err = s.events.ListReviewRows(ctx, filter)
	if err != nil {
		return nil, err
	}

	registration.SortForReview(rows)
	return rows, nil
}
