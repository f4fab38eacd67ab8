package notifications

import (
	"context"
	"fmt"
	"strings"
)

type PaymentDecisionInput struct {
	Email         string
	Name          string
	EventID       string
	EventTitle    string
	ReceiptNumber string
	// verified | rejected
	Status string
	Reason string
}

type Notifier interface {
	SendPaymentDecision(ctx context.Context, input PaymentDecisionInput) error
}

// message renders the subject and plain-text body shared by every provider.
func message(in PaymentDecisionInput) (subject, body string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\n", in.Name)

	if in.Status == "verified" {
		subject = fmt.Sprintf("Payment confirmed: %s", in.EventTitle)
		fmt.Fprintf(&b, "Your payment for %s has been verified. Receipt number: %s.\n", in.EventTitle, in.ReceiptNumber)
		b.WriteString("You can download your official receipt from the portal.\n")
	} else {
		subject = fmt.Sprintf("Payment not accepted: %s", in.EventTitle)
		fmt.Fprintf(&b, "We could not verify your payment for %s (receipt %s).\n", in.EventTitle, in.ReceiptNumber)
		if in.Reason != "" {
			fmt.Fprintf(&b, "Reason: %s\n", in.Reason)
		}
		b.WriteString("Please contact the club executives if you think this is a mistake.\n")
	}

	return subject, b.String()
}
