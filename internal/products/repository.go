package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
	pkgerrors "github.com/rdelacruz/freshmarket-backend/pkg/errors"
)

// Repository is the catalog read surface feeding the storefront cart.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// List returns catalog products ordered by name, optionally filtered to a
// single category. Add-on services are preloaded so the cart can offer them
// without extra reads.
func (r *Repository) List(ctx context.Context, category string) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("AddOns").
		Order("name ASC")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var out []models.Product
	if err := query.Find(&out).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return out, nil
}

// GetByID loads one product with its add-on services.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("AddOns").
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read product")
	}
	return &product, nil
}

// Categories returns the distinct non-empty categories in the catalog.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category IS NOT NULL AND category <> ''").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &out).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return out, nil
}

// Create inserts a catalog product with its add-on services. Used by the
// admin seed path.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	for i := range product.AddOns {
		if product.AddOns[i].ID == uuid.Nil {
			product.AddOns[i].ID = uuid.New()
		}
		product.AddOns[i].ProductID = product.ID
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}
