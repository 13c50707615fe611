package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is one catalog entry the storefront can add to a cart.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Description *string         `gorm:"column:description" json:"description,omitempty"`
	UnitLabel   string          `gorm:"column:unit_label;not null;default:'pc'" json:"unit_label"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	ImageURL    *string         `gorm:"column:image_url" json:"image_url,omitempty"`
	Category    *string         `gorm:"column:category" json:"category,omitempty"`
	Stock       int             `gorm:"column:stock;not null;default:0" json:"stock"`
	AddOns      []AddOnService  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"add_ons,omitempty"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// AddOnService is an optional paid extra offered on a product (gift wrap,
// cold pack, sliced, and so on).
type AddOnService struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
