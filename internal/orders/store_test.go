package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
	dbtypes "github.com/rdelacruz/freshmarket-backend/pkg/db/types"
	"github.com/rdelacruz/freshmarket-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  "customerName" TEXT NOT NULL,
  address TEXT NOT NULL,
  phone TEXT,
  items TEXT,
  "totalAmount" TEXT NOT NULL,
  "preferredTime" TEXT,
  status TEXT NOT NULL DEFAULT 'new',
  notified INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	return db
}

func insertOrder(t *testing.T, db *gorm.DB, name string, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:           uuid.New(),
		CustomerName: name,
		Address:      "1 Market Street",
		Items: dbtypes.OrderItems{
			{
				ProductID:   uuid.New(),
				ProductName: "Heirloom Tomatoes",
				UnitPrice:   decimal.NewFromInt(4),
				Quantity:    2,
				LineTotal:   decimal.NewFromInt(8),
			},
		},
		TotalAmount: decimal.NewFromInt(13),
		Status:      enums.OrderStatusNew,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestStoreCreateAndRead(t *testing.T) {
	db := setupOrdersTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	slot := enums.DeliverySlotMorning
	phone := "5550134"
	order := &models.Order{
		ID:            uuid.New(),
		CustomerName:  "Priya Raman",
		Address:       "18 Orchard Lane",
		Phone:         &phone,
		PreferredTime: &slot,
		Items: dbtypes.OrderItems{
			{
				ProductID:   uuid.New(),
				ProductName: "Sourdough Loaf",
				UnitPrice:   decimal.RequireFromString("6.50"),
				Quantity:    1,
				LineTotal:   decimal.RequireFromString("6.50"),
			},
		},
		TotalAmount: decimal.RequireFromString("11.50"),
		Status:      enums.OrderStatusNew,
	}

	_, err := store.Create(ctx, order)
	require.NoError(t, err)

	got, err := store.Read(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Priya Raman", got.CustomerName)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "5550134", *got.Phone)
	require.NotNil(t, got.PreferredTime)
	assert.Equal(t, enums.DeliverySlotMorning, *got.PreferredTime)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Sourdough Loaf", got.Items[0].ProductName)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("11.50")))
	assert.Equal(t, enums.OrderStatusNew, got.Status)
	assert.False(t, got.Notified)
}

func TestStoreList_newestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	insertOrder(t, db, "First", base)
	insertOrder(t, db, "Second", base.Add(time.Hour))
	insertOrder(t, db, "Third", base.Add(2*time.Hour))

	page, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Third", page[0].CustomerName)
	assert.Equal(t, "Second", page[1].CustomerName)

	rest, err := store.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "First", rest[0].CustomerName)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestStoreUpdateStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	order := insertOrder(t, db, "Mo Adeyemi", time.Now().UTC())

	require.NoError(t, store.UpdateStatus(ctx, order.ID, enums.OrderStatusProcessing))

	got, err := store.Read(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, got.Status)

	err = store.UpdateStatus(ctx, uuid.New(), enums.OrderStatusProcessing)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStoreSetNotified(t *testing.T) {
	db := setupOrdersTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	order := insertOrder(t, db, "Mo Adeyemi", time.Now().UTC())
	require.NoError(t, store.SetNotified(ctx, order.ID))

	got, err := store.Read(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.Notified)
}

func TestStoreDelete_strategies(t *testing.T) {
	db := setupOrdersTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	created := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	order := insertOrder(t, db, "Lena Koch", created)
	other := insertOrder(t, db, "Omar Haddad", created)

	require.NoError(t, store.Delete(ctx, order, DeleteByPrimaryKey))

	present, err := store.Exists(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, present)

	present, err = store.Exists(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, present, "primary key delete must not touch other rows")

	require.NoError(t, store.Delete(ctx, other, DeleteByCompositeFilter))
	present, err = store.Exists(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestStoreDelete_unknownStrategy(t *testing.T) {
	db := setupOrdersTestDB(t)
	store := NewStore(db)

	order := insertOrder(t, db, "Lena Koch", time.Now().UTC())
	err := store.Delete(context.Background(), order, DeleteStrategy("truncate"))
	assert.Error(t, err)
}
