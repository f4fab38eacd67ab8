package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/geocoder89/clubhub/internal/apperr"
	"github.com/geocoder89/clubhub/internal/cache"
	"github.com/geocoder89/clubhub/internal/domain/event"
	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/domain/user"
	"github.com/geocoder89/clubhub/internal/render"
	"github.com/geocoder89/clubhub/internal/share"
	"github.com/geocoder89/clubhub/internal/utils"
)

type ReceiptConfig struct {
	// printed at the top of every receipt
	Issuer        string
	ShareTTL      time.Duration
	PublicBaseURL string
	CacheTTL      time.Duration
}

// ReceiptService serves proofs, receipt metadata and official receipt documents.
type ReceiptService struct {
	events   EventStore
	renderer *render.Renderer
	shares   share.Store
	cfg      ReceiptConfig
	rendered *cache.Cache[render.Document]
	now      func() time.Time
}

func NewReceiptService(events EventStore, renderer *render.Renderer, shares share.Store, cfg ReceiptConfig) *ReceiptService {
	if cfg.ShareTTL <= 0 {
		cfg.ShareTTL = 72 * time.Hour
	}

	return &ReceiptService{
		events:   events,
		renderer: renderer,
		shares:   shares,
		cfg:      cfg,
		rendered: cache.New[render.Document](cfg.CacheTTL).WithMaxEntries(renderCacheEntries),
		now:      time.Now,
	}
}

const renderCacheEntries = 256

var ErrShareNotFound = apperr.New(apperr.NotFound, "share link is invalid or has expired")

type ProofRef struct {
	ReceiptNumber string              `json:"receiptNumber"`
	ReceiptURL    string              `json:"receiptUrl"`
	Status        registration.Status `json:"paymentStatus"`
}

// ReceiptMetadata is the receipt as shown to its owner or an admin.
type ReceiptMetadata struct {
	EventID        string                      `json:"eventId"`
	EventTitle     string                      `json:"eventTitle"`
	EventDate      time.Time                   `json:"eventDate"`
	RegistrationID string                      `json:"registrationId"`
	UserID         string                      `json:"userId"`
	Name           string                      `json:"name"`
	Email          string                      `json:"email"`
	MatricNumber   string                      `json:"matricNumber"`
	RegisteredAt   time.Time                   `json:"registeredAt"`
	Receipt        registration.PaymentReceipt `json:"receipt"`
}

type ShareLink struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ViewProof returns the stored proof whatever the review status.
func (s *ReceiptService) ViewProof(ctx context.Context, eventID string, actor user.Actor) (ref ProofRef, err error) {
	ctx, span := startSpan(ctx, "receipt.view_proof", attribute.String("event.id", eventID))
	defer func() { endSpan(span, err) }()

	_, reg, err := s.receiptOf(ctx, eventID, actor.ID)
	if err != nil {
		return
	}

	return ProofRef{
		ReceiptNumber: reg.Payment.ReceiptNumber,
		ReceiptURL:    reg.Payment.ReceiptURL,
		Status:        reg.Payment.Status,
	}, nil
}

// Metadata returns the actor's own receipt. Admins may pass userID to look at someone else's.
func (s *ReceiptService) Metadata(ctx context.Context, eventID string, actor user.Actor, userID string) (md ReceiptMetadata, err error) {
	ctx, span := startSpan(ctx, "receipt.metadata", attribute.String("event.id", eventID))
	defer func() { endSpan(span, err) }()

	target := actor.ID
	if userID != "" && userID != actor.ID {
		err = actor.RequireAdmin()
		if err != nil {
			return
		}
		target = userID
	}

	e, reg, err := s.receiptOf(ctx, eventID, target)
	if err != nil {
		return
	}

	return ReceiptMetadata{
		EventID:        e.ID,
		EventTitle:     e.Title,
		EventDate:      e.StartAt,
		RegistrationID: reg.ID,
		UserID:         reg.UserID,
		Name:           reg.Name,
		Email:          reg.Email,
		MatricNumber:   reg.MatricNumber,
		RegisteredAt:   reg.RegisteredAt,
		Receipt:        *reg.Payment,
	}, nil
}

// RenderOfficial renders the actor's verified receipt as html (default), pdf or txt.
func (s *ReceiptService) RenderOfficial(ctx context.Context, eventID string, actor user.Actor, format string) (doc render.Document, err error) {
	ctx, span := startSpan(ctx, "receipt.render", attribute.String("event.id", eventID), attribute.String("format", format))
	defer func() { endSpan(span, err) }()

	f, err := render.ParseFormat(format)
	if err != nil {
		return
	}

	return s.renderFor(ctx, eventID, actor.ID, "", f)
}

// Share issues a bearer link to the actor's verified receipt.
func (s *ReceiptService) Share(ctx context.Context, eventID string, actor user.Actor) (link ShareLink, err error) {
	ctx, span := startSpan(ctx, "receipt.share", attribute.String("event.id", eventID))
	defer func() { endSpan(span, err) }()

	_, reg, err := s.receiptOf(ctx, eventID, actor.ID)
	if err != nil {
		return
	}

	err = reg.Payment.RequireVerified()
	if err != nil {
		return
	}

	token := share.NewToken()
	expiresAt := s.now().UTC().Add(s.cfg.ShareTTL)

	err = s.shares.Put(ctx, token, share.Grant{
		EventID:       eventID,
		UserID:        actor.ID,
		ReceiptNumber: reg.Payment.ReceiptNumber,
		ExpiresAt:     expiresAt,
	}, s.cfg.ShareTTL)
	if err != nil {
		err = apperr.Wrap(apperr.Storage, "could not create share link, please try again", err)
		return
	}

	return ShareLink{
		Token:     token,
		URL:       s.cfg.PublicBaseURL + "/receipts/shared/" + token,
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveShare renders the receipt a share token points at, without authentication.
func (s *ReceiptService) ResolveShare(ctx context.Context, token, format string) (doc render.Document, err error) {
	ctx, span := startSpan(ctx, "receipt.resolve_share", attribute.String("format", format))
	defer func() { endSpan(span, err) }()

	f, err := render.ParseFormat(format)
	if err != nil {
		return
	}

	grant, ok, err := s.shares.Get(ctx, token)
	if err != nil {
		err = apperr.Wrap(apperr.Storage, "could not read share link, please try again", err)
		return
	}
	if !ok || s.now().After(grant.ExpiresAt) {
		err = ErrShareNotFound
		return
	}

	doc, err = s.renderFor(ctx, grant.EventID, grant.UserID, grant.ReceiptNumber, f)
	if errors.Is(err, registration.ErrNotFound) || errors.Is(err, registration.ErrNoReceipt) {
		err = ErrShareNotFound
	}
	return doc, err
}

// renderFor reloads the registration every time so a removed one is NotFound even when cached.
// A non-empty receiptNumber must match the current receipt.
func (s *ReceiptService) renderFor(ctx context.Context, eventID, userID, receiptNumber string, f render.Format) (render.Document, error) {
	e, reg, err := s.receiptOf(ctx, eventID, userID)
	if err != nil {
		return render.Document{}, err
	}
	if receiptNumber != "" && reg.Payment.ReceiptNumber != receiptNumber {
		return render.Document{}, ErrShareNotFound
	}

	if err := reg.Payment.RequireVerified(); err != nil {
		return render.Document{}, err
	}

	key := utils.RenderCacheKey(reg.Payment.ReceiptNumber, string(f))
	if doc, ok := s.rendered.Get(key); ok {
		return doc, nil
	}

	doc, err := s.renderer.Render(ctx, f, s.receiptData(&e, reg))
	if err != nil {
		return render.Document{}, err
	}

	s.rendered.Set(key, doc)
	return doc, nil
}

func (s *ReceiptService) receiptOf(ctx context.Context, eventID, userID string) (event.Event, registration.Registration, error) {
	e, err := s.events.Load(ctx, eventID)
	if err != nil {
		return event.Event{}, registration.Registration{}, err
	}

	reg, ok := e.FindByUser(userID)
	if !ok {
		return event.Event{}, registration.Registration{}, registration.ErrNotFound
	}
	if reg.Payment == nil {
		return event.Event{}, registration.Registration{}, registration.ErrNoReceipt
	}
	return e, reg, nil
}

func (s *ReceiptService) receiptData(e *event.Event, reg registration.Registration) render.ReceiptData {
	d := render.ReceiptData{
		Issuer:        s.cfg.Issuer,
		ReceiptNumber: reg.Payment.ReceiptNumber,
		EventTitle:    e.Title,
		EventDate:     e.StartAt,
		Location:      e.Location,
		Name:          reg.Name,
		Email:         reg.Email,
		MatricNumber:  reg.MatricNumber,
		Amount:        reg.Payment.Amount,
		PaymentMethod: reg.Payment.PaymentMethod,
		GeneratedAt:   reg.Payment.GeneratedAt,
	}
	if reg.Payment.VerifiedAt != nil {
		d.VerifiedAt = *reg.Payment.VerifiedAt
	}
	return d
}
