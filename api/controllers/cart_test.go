package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rdelacruz/freshmarket-backend/api/middleware"
	"github.com/rdelacruz/freshmarket-backend/internal/cart"
	"github.com/rdelacruz/freshmarket-backend/internal/checkout"
	"github.com/rdelacruz/freshmarket-backend/internal/products"
	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
	"github.com/rdelacruz/freshmarket-backend/pkg/pricing"
)

type fakeCheckout struct {
	submitFn func(ctx context.Context, store *cart.Store, req checkout.DeliveryRequest) (*checkout.Confirmation, error)
}

func (f *fakeCheckout) Submit(ctx context.Context, store *cart.Store, req checkout.DeliveryRequest, progress checkout.ProgressFunc) (*checkout.Confirmation, error) {
	return f.submitFn(ctx, store, req)
}

func setupCatalog(t *testing.T) *products.Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  unit_label TEXT NOT NULL DEFAULT 'pc',
  price TEXT NOT NULL,
  image_url TEXT,
  category TEXT,
  stock INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS add_on_services (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price TEXT NOT NULL,
  created_at DATETIME
);`).Error)
	return products.NewRepository(db)
}

func cartRouter(manager *cart.Manager, catalog *products.Repository, svc checkout.Service) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(nil))
		r.Get("/cart", GetCart(manager))
		r.Delete("/cart", ClearCart(manager))
		r.Post("/cart/items", AddCartItem(manager, catalog, nil))
		r.Patch("/cart/items/{productID}", UpdateCartItem(manager, nil))
		r.Delete("/cart/items/{productID}", RemoveCartItem(manager, nil))
		r.Post("/checkout", SubmitCheckout(svc, manager, nil))
	})
	return r
}

func testManager() *cart.Manager {
	return cart.NewManager(pricing.Policy{
		FlatFee:   decimal.NewFromInt(5),
		FreeAbove: decimal.NewFromInt(50),
	})
}

func TestCartFlow(t *testing.T) {
	catalog := setupCatalog(t)
	tomato := &models.Product{
		Name:      "Heirloom Tomatoes",
		UnitLabel: "kg",
		Price:     decimal.NewFromInt(10),
		Stock:     20,
	}
	created, err := catalog.Create(context.Background(), tomato)
	require.NoError(t, err)

	manager := testManager()
	router := cartRouter(manager, catalog, &fakeCheckout{})

	// The first request mints a session; reuse it for the rest of the flow.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	sessionID := rec.Header().Get("X-Session-Id")
	require.NotEmpty(t, sessionID)

	addBody := fmt.Sprintf(`{"product_id":%q}`, created.ID)
	for i := 0; i < 2; i++ {
		rec = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(addBody))
		req.Header.Set("X-Session-Id", sessionID)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data cartResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.Len(t, envelope.Data.Lines, 1)
	assert.Equal(t, 2, envelope.Data.Lines[0].Quantity)
	assert.True(t, envelope.Data.Totals.Subtotal.Equal(decimal.NewFromInt(20)),
		"subtotal = %s", envelope.Data.Totals.Subtotal)
	assert.True(t, envelope.Data.Totals.Total.Equal(decimal.NewFromInt(25)),
		"total = %s", envelope.Data.Totals.Total)

	// Quantity zero removes the line.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/cart/items/"+created.ID.String(),
		strings.NewReader(`{"quantity":0}`))
	req.Header.Set("X-Session-Id", sessionID)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Empty(t, envelope.Data.Lines)
}

func TestAddCartItem_unknownProduct(t *testing.T) {
	router := cartRouter(testManager(), setupCatalog(t), &fakeCheckout{})

	rec := httptest.NewRecorder()
	body := fmt.Sprintf(`{"product_id":%q}`, "4dd64b31-84a1-4bb5-862d-4f148530a8a1")
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddCartItem_foreignAddOnRejected(t *testing.T) {
	catalog := setupCatalog(t)
	created, err := catalog.Create(context.Background(), &models.Product{
		Name:  "Sourdough Loaf",
		Price: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	router := cartRouter(testManager(), catalog, &fakeCheckout{})

	rec := httptest.NewRecorder()
	body := fmt.Sprintf(`{"product_id":%q,"add_on_ids":[%q]}`,
		created.ID, "4dd64b31-84a1-4bb5-862d-4f148530a8a1")
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitCheckout_noCartForSession(t *testing.T) {
	router := cartRouter(testManager(), setupCatalog(t), &fakeCheckout{
		submitFn: func(_ context.Context, _ *cart.Store, _ checkout.DeliveryRequest) (*checkout.Confirmation, error) {
			t.Fatal("pipeline must not run without a cart")
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	body := `{"name":"Ines Marchetti","address":"44 Via Roma","phone":"5550134"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
