package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
	"github.com/rdelacruz/freshmarket-backend/pkg/enums"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore builds the gorm-backed order store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (s *gormStore) Read(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *gormStore) List(ctx context.Context, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *gormStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *gormStore) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *gormStore) SetNotified(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("notified", true).Error
}

func (s *gormStore) Delete(ctx context.Context, order *models.Order, strategy DeleteStrategy) error {
	if order == nil {
		return errors.New("order required for delete")
	}
	switch strategy {
	case DeleteByPrimaryKey:
		return s.db.WithContext(ctx).
			Where("id = ?", order.ID).
			Delete(&models.Order{}).Error
	case DeleteByCompositeFilter:
		return s.db.WithContext(ctx).
			Where("\"customerName\" = ? AND created_at = ?", order.CustomerName, order.CreatedAt).
			Delete(&models.Order{}).Error
	default:
		return fmt.Errorf("unknown delete strategy %q", strategy)
	}
}

func (s *gormStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
