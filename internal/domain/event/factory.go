package event

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateEventRequest) Event {
	now := time.Now().UTC()

	return Event{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		Location:        strings.TrimSpace(req.Location),
		Category:        strings.TrimSpace(req.Category),
		StartAt:         req.StartAt.UTC(),
		RequiresPayment: req.RequiresPayment,
		PaymentAmount:   req.PaymentAmount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
