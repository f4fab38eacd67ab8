package registration

import (
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/clubhub/internal/apperr"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusVerified:
		return StatusVerified, nil
	case StatusRejected:
		return StatusRejected, nil
	}
	return "", apperr.Newf(apperr.Validation, "unknown payment status %q", s)
}

type PaymentReceipt struct {
	ReceiptNumber   string     `json:"receiptNumber"`
	Amount          float64    `json:"amount"`
	PaymentMethod   string     `json:"paymentMethod"`
	ReceiptURL      string     `json:"receiptUrl"`
	ReceiptKey      string     `json:"-"`
	Status          Status     `json:"paymentStatus"`
	GeneratedAt     time.Time  `json:"generatedAt"`
	VerifiedAt      *time.Time `json:"verifiedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	ReviewedBy      string     `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
}

var (
	ErrNoReceipt           = apperr.New(apperr.NotFound, "no payment receipt for this registration")
	ErrInvalidPaymentState = apperr.New(apperr.InvalidState, "payment has already been reviewed")
	ErrNotVerified         = apperr.New(apperr.InvalidState, "receipt not yet verified")
	ErrReceiptNumberTaken  = apperr.New(apperr.Conflict, "receipt number already in use")
)

func (p PaymentReceipt) Clone() PaymentReceipt {
	if p.VerifiedAt != nil {
		t := *p.VerifiedAt
		p.VerifiedAt = &t
	}
	if p.ReviewedAt != nil {
		t := *p.ReviewedAt
		p.ReviewedAt = &t
	}
	return p
}

// Approve moves a pending receipt to verified. Terminal states never change.
func (p *PaymentReceipt) Approve(reviewer string, at time.Time) error {
	if p.Status != StatusPending {
		return fmt.Errorf("approve %s receipt: %w", p.Status, ErrInvalidPaymentState)
	}

	at = at.UTC()
	p.Status = StatusVerified
	p.VerifiedAt = &at
	p.ReviewedBy = reviewer
	p.ReviewedAt = &at
	return nil
}

func (p *PaymentReceipt) Reject(reason, reviewer string, at time.Time) error {
	if p.Status != StatusPending {
		return fmt.Errorf("reject %s receipt: %w", p.Status, ErrInvalidPaymentState)
	}

	at = at.UTC()
	p.Status = StatusRejected
	p.RejectionReason = strings.TrimSpace(reason)
	p.ReviewedBy = reviewer
	p.ReviewedAt = &at
	return nil
}

// RequireVerified gates rendering and sharing.
func (p *PaymentReceipt) RequireVerified() error {
	if p == nil {
		return ErrNoReceipt
	}
	if p.Status != StatusVerified {
		return ErrNotVerified
	}
	return nil
}
