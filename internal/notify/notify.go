package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
)

// Payload is the order summary pushed over the side channel when a checkout
// completes. It is a snapshot; later edits to the order do not resend.
type Payload struct {
	OrderID      string
	CustomerName string
	Address      string
	Total        string
	Status       string
	ItemCount    int
}

// Channel is the outbound notification boundary. Implementations report
// errors to the caller; deciding whether a failure matters is the caller's
// job, and for checkout it never does.
type Channel interface {
	Send(ctx context.Context, payload Payload) error
}

// PayloadFromOrder flattens an order into the channel payload.
func PayloadFromOrder(order models.Order) Payload {
	return Payload{
		OrderID:      order.ID.String(),
		CustomerName: order.CustomerName,
		Address:      order.Address,
		Total:        order.TotalAmount.StringFixed(2),
		Status:       order.Status.String(),
		ItemCount:    len(order.Items),
	}
}

func (p Payload) subject() string {
	return fmt.Sprintf("New order from %s", p.CustomerName)
}

func (p Payload) body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s\n", p.OrderID)
	fmt.Fprintf(&b, "Customer: %s\n", p.CustomerName)
	fmt.Fprintf(&b, "Address: %s\n", p.Address)
	fmt.Fprintf(&b, "Items: %d\n", p.ItemCount)
	fmt.Fprintf(&b, "Total: %s\n", p.Total)
	fmt.Fprintf(&b, "Status: %s\n", p.Status)
	return b.String()
}
