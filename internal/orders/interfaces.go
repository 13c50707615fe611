package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
	"github.com/rdelacruz/freshmarket-backend/pkg/enums"
	"github.com/rdelacruz/freshmarket-backend/pkg/pagination"
)

// DeleteStrategy selects how a delete statement matches the target row. The
// backing store has been observed to silently no-op deletes under some
// conditions, so the repository escalates through strategies.
type DeleteStrategy string

const (
	DeleteByPrimaryKey      DeleteStrategy = "primary_key"
	DeleteByCompositeFilter DeleteStrategy = "composite_filter"
)

// Store is the raw persistence boundary for orders. Implementations absorb
// the backing store's idiosyncrasies; everything above speaks in models.
type Store interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	Read(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, limit, offset int) ([]models.Order, error)
	Count(ctx context.Context) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	SetNotified(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, order *models.Order, strategy DeleteStrategy) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ChangeNotifier fans successful order writes out to the change feed so
// other open views can reconcile. Implementations are best-effort and must
// absorb their own errors.
type ChangeNotifier interface {
	OrderCreated(ctx context.Context, order models.Order)
	OrderUpdated(ctx context.Context, order models.Order)
	OrderDeleted(ctx context.Context, order models.Order)
}

// Page is one page of the order list plus the math the back office needs to
// render a pager.
type Page struct {
	Orders     []models.Order `json:"orders"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalCount int64          `json:"total_count"`
	TotalPages int            `json:"total_pages"`
}

// Repository is the order persistence surface consumed by checkout and the
// back office.
type Repository interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListPaginated(ctx context.Context, params pagination.Params) (*Page, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	MarkNotified(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}
