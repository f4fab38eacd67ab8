package event

import (
	"time"

	"github.com/geocoder89/clubhub/internal/apperr"
	"github.com/geocoder89/clubhub/internal/domain/registration"
)

type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Location        string    `json:"location,omitempty"`
	Category        string    `json:"category,omitempty"`
	StartAt         time.Time `json:"startAt"`
	Cancelled       bool      `json:"cancelled"`
	RequiresPayment bool      `json:"requiresPayment"`
	PaymentAmount   float64   `json:"paymentAmount"`
	Revision        int64     `json:"revision"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	// insertion order is registration order
	Registrations []registration.Registration `json:"-"`

	changes []Change
}

var (
	ErrNotFound         = apperr.New(apperr.NotFound, "event not found")
	ErrClosed           = apperr.New(apperr.Closed, "event is no longer accepting registrations")
	ErrRevisionConflict = apperr.New(apperr.Conflict, "event was modified concurrently, please retry")
)

type ChangeKind int

const (
	RegistrationAdded ChangeKind = iota + 1
	RegistrationRemoved
	PaymentUpdated
)

// Change is a pending mutation the repository applies on save.
type Change struct {
	Kind         ChangeKind
	Registration registration.Registration
}

func (e *Event) PaymentRequired() bool {
	return e.RequiresPayment && e.PaymentAmount > 0
}

// Cancel closes the event to new registrations. Existing registrations stay.
func (e *Event) Cancel() {
	e.Cancelled = true
}

// RegisteredUserIDs is derived from the registrations, never stored.
func (e *Event) RegisteredUserIDs() []string {
	ids := make([]string, 0, len(e.Registrations))
	for _, r := range e.Registrations {
		ids = append(ids, r.UserID)
	}
	return ids
}

func (e *Event) FindByUser(userID string) (registration.Registration, bool) {
	for _, r := range e.Registrations {
		if r.UserID == userID {
			return r, true
		}
	}
	return registration.Registration{}, false
}

func (e *Event) FindByID(registrationID string) (registration.Registration, bool) {
	i := e.indexByID(registrationID)
	if i < 0 {
		return registration.Registration{}, false
	}
	return e.Registrations[i], true
}

func (e *Event) indexByID(registrationID string) int {
	for i, r := range e.Registrations {
		if r.ID == registrationID {
			return i
		}
	}
	return -1
}

// CanRegister checks closure and duplicates, in that order.
func (e *Event) CanRegister(userID string) error {
	if e.Cancelled {
		return ErrClosed
	}
	if _, ok := e.FindByUser(userID); ok {
		return registration.ErrAlreadyRegistered
	}
	return nil
}

func (e *Event) AddRegistration(r registration.Registration) error {
	if err := e.CanRegister(r.UserID); err != nil {
		return err
	}

	e.Registrations = append(e.Registrations, r)
	e.record(RegistrationAdded, r)
	return nil
}

// RemoveRegistrationForUser drops the user's live registration and its receipt.
func (e *Event) RemoveRegistrationForUser(userID string) (registration.Registration, error) {
	for i, r := range e.Registrations {
		if r.UserID != userID {
			continue
		}

		e.Registrations = append(e.Registrations[:i:i], e.Registrations[i+1:]...)
		e.record(RegistrationRemoved, r)
		return r, nil
	}
	return registration.Registration{}, registration.ErrNotFound
}

func (e *Event) ApprovePayment(registrationID, reviewer string, at time.Time) (registration.PaymentReceipt, error) {
	return e.updatePayment(registrationID, func(p *registration.PaymentReceipt) error {
		return p.Approve(reviewer, at)
	})
}

func (e *Event) RejectPayment(registrationID, reason, reviewer string, at time.Time) (registration.PaymentReceipt, error) {
	return e.updatePayment(registrationID, func(p *registration.PaymentReceipt) error {
		return p.Reject(reason, reviewer, at)
	})
}

func (e *Event) updatePayment(registrationID string, apply func(*registration.PaymentReceipt) error) (registration.PaymentReceipt, error) {
	i := e.indexByID(registrationID)
	if i < 0 {
		return registration.PaymentReceipt{}, registration.ErrNotFound
	}

	r := e.Registrations[i]
	if r.Payment == nil {
		return registration.PaymentReceipt{}, registration.ErrNoReceipt
	}

	p := r.Payment.Clone()
	if err := apply(&p); err != nil {
		return registration.PaymentReceipt{}, err
	}

	r.Payment = &p
	e.Registrations[i] = r
	e.record(PaymentUpdated, r)
	return p, nil
}

func (e *Event) record(kind ChangeKind, r registration.Registration) {
	e.changes = append(e.changes, Change{Kind: kind, Registration: r.Clone()})
}

func (e *Event) Changes() []Change {
	return e.changes
}

func (e *Event) ClearChanges() {
	e.changes = nil
}

// Clone deep-copies the event; pending changes are not carried over.
func (e Event) Clone() Event {
	regs := make([]registration.Registration, len(e.Registrations))
	for i, r := range e.Registrations {
		regs[i] = r.Clone()
	}
	e.Registrations = regs
	e.changes = nil
	return e
}

// ReviewRows projects every registration that carries a receipt.
func (e *Event) ReviewRows() []registration.ReviewRow {
	var rows []registration.ReviewRow
	for _, r := range e.Registrations {
		if r.Payment == nil {
			continue
		}
		rows = append(rows, registration.ReviewRow{
			EventID:        e.ID,
			EventTitle:     e.Title,
			EventDate:      e.StartAt,
			RegistrationID: r.ID,
			UserID:         r.UserID,
			UserName:       r.Name,
			UserEmail:      r.Email,
			ReceiptNumber:  r.Payment.ReceiptNumber,
			Amount:         r.Payment.Amount,
			PaymentMethod:  r.Payment.PaymentMethod,
			Status:         r.Payment.Status,
			RegisteredAt:   r.RegisteredAt,
			ReceiptURL:     r.Payment.ReceiptURL,
		})
	}
	return rows
}

type CreateEventRequest struct {
	Title           string    `json:"title" binding:"required,min=3,max=120"`
	Description     string    `json:"description" binding:"omitempty,max=2000"`
	Location        string    `json:"location" binding:"omitempty,min=2,max=120"`
	Category        string    `json:"category" binding:"omitempty,max=60"`
	StartAt         time.Time `json:"startAt" binding:"required"`
	RequiresPayment bool      `json:"requiresPayment"`
	PaymentAmount   float64   `json:"paymentAmount" binding:"gte=0"`
}

// View is the read model returned by GET /events/:id.
type View struct {
	Event
	RegisteredUsers   []string `json:"registeredUsers"`
	RegistrationCount int      `json:"registrationCount"`
}

func (e *Event) View() View {
	ids := e.RegisteredUserIDs()
	return View{Event: *e, RegisteredUsers: ids, RegistrationCount: len(ids)}
}
