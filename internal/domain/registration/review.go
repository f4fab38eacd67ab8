package registration

import (
	"slices"
	"time"
)

// ReviewRow is one line of the admin payment review list.
type ReviewRow struct {
	EventID        string    `json:"eventId"`
	EventTitle     string    `json:"eventTitle"`
	EventDate      time.Time `json:"eventDate"`
	RegistrationID string    `json:"registrationId"`
	UserID         string    `json:"userId"`
	UserName       string    `json:"userName"`
	UserEmail      string    `json:"userEmail"`
	ReceiptNumber  string    `json:"receiptNumber"`
	Amount         float64   `json:"amount"`
	PaymentMethod  string    `json:"paymentMethod"`
	Status         Status    `json:"paymentStatus"`
	RegisteredAt   time.Time `json:"registeredAt"`
	ReceiptURL     string    `json:"receiptUrl"`
}

// SortForReview puts pending rows first, newest registrations first inside each
// group, and breaks ties on registration id.
func SortForReview(rows []ReviewRow) {
	slices.SortFunc(rows, func(a, b ReviewRow) int {
		ap, bp := a.Status == StatusPending, b.Status == StatusPending
		if ap != bp {
			if ap {
				return -1
			}
			return 1
		}

		if c := b.RegisteredAt.Compare(a.RegisteredAt); c != 0 {
			return c
		}

		switch {
		case a.RegistrationID < b.RegistrationID:
			return -1
		case a.RegistrationID > b.RegistrationID:
			return 1
		}
		return 0
	})
}

// FilterByStatus keeps rows matching status; nil keeps everything.
func FilterByStatus(rows []ReviewRow, status *Status) []ReviewRow {
	if status == nil {
		return rows
	}

	out := rows[:0:0]
	for _, r := range rows {
		if r.Status == *status {
			out = append(out, r)
		}
	}
	return out
}
