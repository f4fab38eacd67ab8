package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/geocoder89/clubhub/internal/domain/registration"
)

const Prefix = "RCP-"

// FileRef points at the stored proof of payment.
type FileRef struct {
	URL string
	Key string
}

// Issuer mints receipt numbers from a snowflake node: time-sortable and unique per node.
type Issuer struct {
	node *snowflake.Node
	now  func() time.Time
}

func NewIssuer(nodeID int64) (*Issuer, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("receipt node %d: %w", nodeID, err)
	}
	return &Issuer{node: node, now: time.Now}, nil
}

func (i *Issuer) Number() string {
	return Prefix + strings.ToUpper(i.node.Generate().Base36())
}

// Issue builds a pending receipt. Nothing is persisted here.
func (i *Issuer) Issue(amount float64, method string, file FileRef) registration.PaymentReceipt {
	return registration.PaymentReceipt{
		ReceiptNumber: i.Number(),
		Amount:        amount,
		PaymentMethod: strings.TrimSpace(method),
		ReceiptURL:    file.URL,
		ReceiptKey:    file.Key,
		Status:        registration.StatusPending,
		GeneratedAt:   i.now().UTC(),
	}
}
