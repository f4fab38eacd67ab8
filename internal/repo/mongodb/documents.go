package mongodb

import (
	"time"

	"github.com/geocoder89/clubhub/internal/domain/event"
	"github.com/geocoder89/clubhub/internal/domain/registration"
)

type eventDoc struct {
	ID              string            `bson:"_id"`
	Title           string            `bson:"title"`
	Description     string            `bson:"description"`
	Location        string            `bson:"location"`
	Category        string            `bson:"category"`
	StartAt         time.Time         `bson:"startAt"`
	Cancelled       bool              `bson:"cancelled"`
	RequiresPayment bool              `bson:"requiresPayment"`
	PaymentAmount   float64           `bson:"paymentAmount"`
	Revision        int64             `bson:"revision"`
	CreatedAt       time.Time         `bson:"createdAt"`
	UpdatedAt       time.Time         `bson:"updatedAt"`
	Registrations   []registrationDoc `bson:"registrations"`
}

type registrationDoc struct {
	ID           string      `bson:"id"`
	UserID       string      `bson:"userId"`
	Name         string      `bson:"name"`
	Email        string      `bson:"email"`
	MatricNumber string      `bson:"matricNumber"`
	Phone        string      `bson:"phone"`
	Notes        string      `bson:"notes,omitempty"`
	RegisteredAt time.Time   `bson:"registeredAt"`
	Payment      *receiptDoc `bson:"payment,omitempty"`
}

type receiptDoc struct {
	ReceiptNumber   string     `bson:"receiptNumber"`
	Amount          float64    `bson:"amount"`
	PaymentMethod   string     `bson:"paymentMethod"`
	ReceiptURL      string     `bson:"receiptUrl"`
	ReceiptKey      string     `bson:"receiptKey"`
	Status          string     `bson:"status"`
	GeneratedAt     time.Time  `bson:"generatedAt"`
	VerifiedAt      *time.Time `bson:"verifiedAt,omitempty"`
	RejectionReason string     `bson:"rejectionReason,omitempty"`
	ReviewedBy      string     `bson:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time `bson:"reviewedAt,omitempty"`
}

// receiptNumberDoc reserves a receipt number; _id uniqueness makes numbers global.
type receiptNumberDoc struct {
	Number         string    `bson:"_id"`
	EventID        string    `bson:"eventId"`
	RegistrationID string    `bson:"registrationId"`
	ReservedAt     time.Time `bson:"reservedAt"`
}

func toDoc(e *event.Event) eventDoc {
	d := eventDoc{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		Location:        e.Location,
		Category:        e.Category,
		StartAt:         e.StartAt,
		Cancelled:       e.Cancelled,
		RequiresPayment: e.RequiresPayment,
		PaymentAmount:   e.PaymentAmount,
		Revision:        e.Revision,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
		Registrations:   make([]registrationDoc, 0, len(e.Registrations)),
	}

	for _, r := range e.Registrations {
		rd := registrationDoc{
			ID:           r.ID,
			UserID:       r.UserID,
			Name:         r.Name,
			Email:        r.Email,
			MatricNumber: r.MatricNumber,
			Phone:        r.Phone,
			Notes:        r.Notes,
			RegisteredAt: r.RegisteredAt,
		}
		if p := r.Payment; p != nil {
			rd.Payment = &receiptDoc{
				ReceiptNumber:   p.ReceiptNumber,
				Amount:          p.Amount,
				PaymentMethod:   p.PaymentMethod,
				ReceiptURL:      p.ReceiptURL,
				ReceiptKey:      p.ReceiptKey,
				Status:          string(p.Status),
				GeneratedAt:     p.GeneratedAt,
				VerifiedAt:      p.VerifiedAt,
				RejectionReason: p.RejectionReason,
				ReviewedBy:      p.ReviewedBy,
				ReviewedAt:      p.ReviewedAt,
			}
		}
		d.Registrations = append(d.Registrations, rd)
	}
	return d
}

func (d eventDoc) toDomain() event.Event {
	e := event.Event{
		ID:              d.ID,
		Title:           d.Title,
		Description:     d.Description,
		Location:        d.Location,
		Category:        d.Category,
		StartAt:         d.StartAt.UTC(),
		Cancelled:       d.Cancelled,
		RequiresPayment: d.RequiresPayment,
		PaymentAmount:   d.PaymentAmount,
		Revision:        d.Revision,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
		Registrations:   make([]registration.Registration, 0, len(d.Registrations)),
	}

	for _, rd := range d.Registrations {
		r := registration.Registration{
			ID:           rd.ID,
			EventID:      d.ID,
			UserID:       rd.UserID,
			Name:         rd.Name,
			Email:        rd.Email,
			MatricNumber: rd.MatricNumber,
			Phone:        rd.Phone,
			Notes:        rd.Notes,
			RegisteredAt: rd.RegisteredAt.UTC(),
		}
		if p := rd.Payment; p != nil {
			r.Payment = &registration.PaymentReceipt{
				ReceiptNumber:   p.ReceiptNumber,
				Amount:          p.Amount,
				PaymentMethod:   p.PaymentMethod,
				ReceiptURL:      p.ReceiptURL,
				ReceiptKey:      p.ReceiptKey,
				Status:          registration.Status(p.Status),
				GeneratedAt:     p.GeneratedAt.UTC(),
				VerifiedAt:      p.VerifiedAt,
				RejectionReason: p.RejectionReason,
				ReviewedBy:      p.ReviewedBy,
				ReviewedAt:      p.ReviewedAt,
			}
		}
		e.Registrations = append(e.Registrations, r)
	}
	return e
}
