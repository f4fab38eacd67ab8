package registration

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/geocoder89/clubhub/internal/apperr"
)

type Registration struct {
	ID           string          `json:"id"`
	EventID      string          `json:"eventId"`
	UserID       string          `json:"userId"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	MatricNumber string          `json:"matricNumber"`
	Phone        string          `json:"phone"`
	Notes        string          `json:"notes,omitempty"`
	RegisteredAt time.Time       `json:"registeredAt"`
	Payment      *PaymentReceipt `json:"payment,omitempty"`
}

// Clone copies the registration including its receipt so callers can't mutate shared state.
func (r Registration) Clone() Registration {
	if r.Payment != nil {
		p := r.Payment.Clone()
		r.Payment = &p
	}
	return r
}

// if you are already registered.
var ErrAlreadyRegistered = apperr.New(apperr.Conflict, "you are already registered for this event")

var ErrNotFound = apperr.New(apperr.NotFound, "registration not found")

// Form is what the user submits alongside the optional proof file.
type Form struct {
	Name          string `form:"name" validate:"required,max=120"`
	Email         string `form:"email" validate:"required,max=254,email"`
	MatricNumber  string `form:"matricNumber" validate:"required,max=40"`
	Phone         string `form:"phone" validate:"required,max=30"`
	Notes         string `form:"notes" validate:"omitempty,max=1000"`
	PaymentMethod string `form:"paymentMethod" validate:"omitempty,max=60"`
}

var validate = validator.New()

// Normalize trims every field in place.
func (f *Form) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.MatricNumber = strings.TrimSpace(f.MatricNumber)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Notes = strings.TrimSpace(f.Notes)
	f.PaymentMethod = strings.TrimSpace(f.PaymentMethod)
}

// Validate trims the form and checks mandatory fields. Whitespace-only values count as missing.
func (f *Form) Validate() error {
	f.Normalize()

	err := validate.Struct(f)

	if err == nil {
		return nil
	}

	ves, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Wrap(apperr.Validation, "invalid registration form", err)
	}

	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		fields[formFieldName(fe.Field())] = fieldMessage(fe)
	}

	return apperr.New(apperr.Validation, "please fill in all required fields").WithDetails(fields)
}

func formFieldName(structField string) string {
	switch structField {
	case "MatricNumber":
		return "matricNumber"
	case "PaymentMethod":
		return "paymentMethod"
	default:
		return strings.ToLower(structField)
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

// New builds a registration with a fresh stable id. The form must already be validated.
func New(eventID, userID string, form Form, at time.Time) Registration {
	return Registration{
		ID:           uuid.NewString(),
		EventID:      eventID,
		UserID:       userID,
		Name:         form.Name,
		Email:        form.Email,
		MatricNumber: form.MatricNumber,
		Phone:        form.Phone,
		Notes:        form.Notes,
		RegisteredAt: at.UTC(),
	}
}
