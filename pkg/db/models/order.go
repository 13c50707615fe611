package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/rdelacruz/freshmarket-backend/pkg/db/types"
	"github.com/rdelacruz/freshmarket-backend/pkg/enums"
)

// Order is the durable record of a completed checkout. The camelCase column
// names are inherited from the managed store the data was migrated from; the
// tags absorb them so nothing above this layer sees the quirk.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerName  string              `gorm:"column:customerName;not null" json:"customer_name"`
	Address       string              `gorm:"column:address;not null" json:"address"`
	Phone         *string             `gorm:"column:phone" json:"phone,omitempty"`
	Items         dbtypes.OrderItems  `gorm:"column:items;type:jsonb" json:"items"`
	TotalAmount   decimal.Decimal     `gorm:"column:totalAmount;type:numeric(12,2);not null" json:"total_amount"`
	PreferredTime *enums.DeliverySlot `gorm:"column:preferredTime;type:text" json:"preferred_time,omitempty"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'new'" json:"status"`
	Notified      bool                `gorm:"column:notified;not null;default:false" json:"notified"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName fixes the legacy table name.
func (Order) TableName() string {
	return "orders"
}
