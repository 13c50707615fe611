package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemService is the snapshot of one add-on service selected on a line.
type OrderItemService struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// OrderItem is the immutable snapshot of one cart line taken at submission
// time. Catalog edits after checkout never reach these values.
type OrderItem struct {
	ProductID   uuid.UUID          `json:"product_id"`
	ProductName string             `json:"product_name"`
	UnitLabel   string             `json:"unit_label,omitempty"`
	UnitPrice   decimal.Decimal    `json:"price"`
	Quantity    int                `json:"quantity"`
	Services    []OrderItemService `json:"services,omitempty"`
	LineTotal   decimal.Decimal    `json:"line_total"`
}

// OrderItems maps the store's JSON-encoded line item column to a typed slice.
type OrderItems []OrderItem

func (items *OrderItems) Scan(src any) error {
	if src == nil {
		*items = OrderItems{}
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return items.parseJSON(v)
	case string:
		return items.parseJSON([]byte(v))
	default:
		return fmt.Errorf("OrderItems: unsupported Scan type %T", src)
	}
}

func (items OrderItems) Value() (driver.Value, error) {
	if items == nil {
		items = OrderItems{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("OrderItems: marshal: %w", err)
	}
	return string(raw), nil
}

func (items *OrderItems) parseJSON(raw []byte) error {
	if len(raw) == 0 {
		*items = OrderItems{}
		return nil
	}
	var out []OrderItem
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("OrderItems: parse: %w", err)
	}
	*items = OrderItems(out)
	return nil
}
