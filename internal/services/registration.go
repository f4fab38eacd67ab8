package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/geocoder89/clubhub/internal/apperr"
	"github.com/geocoder89/clubhub/internal/domain/event"
	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/domain/user"
	"github.com/geocoder89/clubhub/internal/filestore"
	"github.com/geocoder89/clubhub/internal/observability"
	"github.com/geocoder89/clubhub/internal/receipt"
	"github.com/geocoder89/clubhub/internal/retry"
)

type RegistrationService struct {
	events       EventStore
	files        filestore.Store
	issuer       *receipt.Issuer
	prom         *observability.Prom
	uploadPolicy retry.Policy
	now          func() time.Time
}

func NewRegistrationService(events EventStore, files filestore.Store, issuer *receipt.Issuer, prom *observability.Prom) *RegistrationService {
	return &RegistrationService{
		events:       events,
		files:        files,
		issuer:       issuer,
		prom:         prom,
		uploadPolicy: filestore.DefaultUploadPolicy,
		now:          time.Now,
	}
}

// Register signs the actor up for the event. Every check runs before the proof is uploaded;
// an uploaded proof that never gets committed is deleted again.
func (s *RegistrationService) Register(ctx context.Context, eventID string, actor user.Actor, form registration.Form, proof *registration.ProofFile) (reg registration.Registration, err error) {
	ctx, span := startSpan(ctx, "registration.register", attribute.String("event.id", eventID))
	defer func() {
		endSpan(span, err)
		s.prom.IncRegistration("register", resultLabel(err))
	}()

	e, err := s.events.Load(ctx, eventID)
	if err != nil {
		return
	}

	err = e.CanRegister(actor.ID)
	if err != nil {
		return
	}

	err = form.Validate()
	if err != nil {
		return
	}

	var obj *filestore.Object
	if e.PaymentRequired() {
		err = registration.ValidateProof(proof, form.PaymentMethod)
		if err != nil {
			return
		}

		obj, err = s.upload(ctx, eventID, proof)
		if err != nil {
			return
		}
	}

	committed := false
	defer func() {
		if obj != nil && !committed {
			s.deleteOrphan(ctx, "register_failed", obj.Key)
		}
	}()

	_, err = mutate(ctx, s.events, s.prom, "register", eventID, func(e *event.Event) error {
		if err := e.CanRegister(actor.ID); err != nil {
			return err
		}

		r := registration.New(e.ID, actor.ID, form, s.now())

		if e.PaymentRequired() {
			if obj == nil {
				return registration.ErrProofRequired
			}

			// a fresh number on every attempt, so a collision just retries
			p := s.issuer.Issue(e.PaymentAmount, form.PaymentMethod, receipt.FileRef{URL: obj.URL, Key: obj.Key})
			r.Payment = &p
		}

		if err := e.AddRegistration(r); err != nil {
			return err
		}

		reg = r
		return nil
	})

	if err != nil {
		return registration.Registration{}, err
	}

	committed = true

	// proof was uploaded but the event stopped requiring payment before the save
	if obj != nil && reg.Payment == nil {
		s.deleteOrphan(ctx, "payment_not_required", obj.Key)
	}

	slog.Default().InfoContext(ctx, "registration.created",
		"event_id", eventID,
		"registration_id", reg.ID,
		"paid", reg.Payment != nil,
	)
	return reg, nil
}

// Unregister removes the actor's registration and receipt; the stored proof is deleted after commit.
func (s *RegistrationService) Unregister(ctx context.Context, eventID string, actor user.Actor) (err error) {
	ctx, span := startSpan(ctx, "registration.unregister", attribute.String("event.id", eventID))
	defer func() {
		endSpan(span, err)
		s.prom.IncRegistration("unregister", resultLabel(err))
	}()

	var removed registration.Registration

	_, err = mutate(ctx, s.events, s.prom, "unregister", eventID, func(e *event.Event) error {
		r, err := e.RemoveRegistrationForUser(actor.ID)
		if err != nil {
			return err
		}
		removed = r
		return nil
	})

	if err != nil {
		return err
	}

	if removed.Payment != nil && removed.Payment.ReceiptKey != "" {
		s.deleteOrphan(ctx, "unregistered", removed.Payment.ReceiptKey)
	}

	slog.Default().InfoContext(ctx, "registration.removed",
		"event_id", eventID,
		"registration_id", removed.ID,
	)
	return nil
}

func (s *RegistrationService) upload(ctx context.Context, eventID string, proof *registration.ProofFile) (*filestore.Object, error) {
	ct, err := registration.SniffProof(proof)
	if err != nil {
		return nil, err
	}

	name := eventID + "/" + uuid.NewString()

	obj, err := filestore.PutWithRetry(ctx, s.files, s.uploadPolicy, name, ct, proof.Body)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

// deleteOrphan never fails the caller; failures are logged and counted.
func (s *RegistrationService) deleteOrphan(ctx context.Context, reason, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := s.files.Delete(ctx, key)

	if err != nil {
		s.prom.IncOrphanCleanup(reason, "failed")
		slog.Default().ErrorContext(ctx, "registration.orphan_cleanup_failed",
			"reason", reason,
			"file_key", key,
			"err", err,
		)
		return
	}

	s.prom.IncOrphanCleanup(reason, "ok")
}

func resultLabel(err error) string {
	switch apperr.KindOf(err) {
	case "":
		return "ok"
	case apperr.Storage, apperr.Internal:
		return "error"
	default:
		return "rejected"
	}
}
