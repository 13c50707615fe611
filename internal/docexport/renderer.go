package docexport

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
)

const separator = "----------------------------------------"

// Renderer produces a printable plain-text summary of a finalized order.
// It reads the order snapshot only; rendering never touches stored state.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render writes the order summary. Line totals come from the snapshot taken
// at submission time, so the document matches what the customer confirmed
// even if the catalog has changed since.
func (r *Renderer) Render(order models.Order) ([]byte, error) {
	if order.ID == uuid.Nil {
		return nil, fmt.Errorf("order id required")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "FRESHMARKET ORDER %s\n", order.ID)
	fmt.Fprintf(&buf, "Placed: %s\n", order.CreatedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&buf, "Status: %s\n", order.Status)
	buf.WriteString(separator + "\n")

	fmt.Fprintf(&buf, "Customer: %s\n", order.CustomerName)
	fmt.Fprintf(&buf, "Address:  %s\n", order.Address)
	if order.Phone != nil && *order.Phone != "" {
		fmt.Fprintf(&buf, "Phone:    %s\n", *order.Phone)
	}
	if order.PreferredTime != nil {
		fmt.Fprintf(&buf, "Delivery: %s\n", *order.PreferredTime)
	}
	buf.WriteString(separator + "\n")

	for _, item := range order.Items {
		label := item.ProductName
		if item.UnitLabel != "" {
			label = fmt.Sprintf("%s (%s)", item.ProductName, item.UnitLabel)
		}
		fmt.Fprintf(&buf, "%-30s x%-3d %10s\n", truncate(label, 30), item.Quantity, item.LineTotal.StringFixed(2))
		for _, svc := range item.Services {
			fmt.Fprintf(&buf, "  + %-26s      %10s\n", truncate(svc.Name, 26), svc.Price.StringFixed(2))
		}
	}
	buf.WriteString(separator + "\n")

	fmt.Fprintf(&buf, "%-35s %10s\n", "TOTAL", order.TotalAmount.StringFixed(2))
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
