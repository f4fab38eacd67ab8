package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the log instead of sending them. Default in dev.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) SendPaymentDecision(ctx context.Context, in PaymentDecisionInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, _ := message(in)
	slog.Default().InfoContext(ctx, "notification.payment_decision",
		"email", in.Email,
		"event_id", in.EventID,
		"receipt_number", in.ReceiptNumber,
		"status", in.Status,
		"subject", subject,
	)
	return nil
}
