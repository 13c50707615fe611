package controllers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rdelacruz/freshmarket-backend/api/middleware"
	"github.com/rdelacruz/freshmarket-backend/api/responses"
	"github.com/rdelacruz/freshmarket-backend/api/validators"
	"github.com/rdelacruz/freshmarket-backend/internal/cart"
	"github.com/rdelacruz/freshmarket-backend/internal/products"
	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
	pkgerrors "github.com/rdelacruz/freshmarket-backend/pkg/errors"
	"github.com/rdelacruz/freshmarket-backend/pkg/logger"
	"github.com/rdelacruz/freshmarket-backend/pkg/pricing"
)

type addItemRequest struct {
	ProductID string   `json:"product_id" validate:"required,uuid"`
	AddOnIDs  []string `json:"add_on_ids" validate:"omitempty,dive,uuid"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

type cartResponse struct {
	Lines  []cart.Line    `json:"lines"`
	Totals pricing.Totals `json:"totals"`
}

func cartView(store *cart.Store) cartResponse {
	return cartResponse{Lines: store.Lines(), Totals: store.Totals()}
}

func sessionCart(r *http.Request, manager *cart.Manager) *cart.Store {
	return manager.Get(middleware.SessionIDFromContext(r.Context()))
}

func GetCart(manager *cart.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, cartView(sessionCart(r, manager)))
	}
}

// AddCartItem resolves the product and requested add-on services from the
// catalog, then adds one unit to the session cart. Adding the same product
// again increments its quantity.
func AddCartItem(manager *cart.Manager, catalog *products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(body.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		product, err := catalog.GetByID(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		services, err := resolveAddOns(product, body.AddOnIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store := sessionCart(r, manager)
		store.AddItem(*product, services...)
		responses.WriteSuccessStatus(w, http.StatusCreated, cartView(store))
	}
}

func UpdateCartItem(manager *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		var body updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store := sessionCart(r, manager)
		store.UpdateQuantity(productID, body.Quantity)
		responses.WriteSuccess(w, cartView(store))
	}
}

func RemoveCartItem(manager *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		store := sessionCart(r, manager)
		store.RemoveItem(productID)
		responses.WriteSuccess(w, cartView(store))
	}
}

func ClearCart(manager *cart.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := sessionCart(r, manager)
		store.Clear()
		responses.WriteSuccess(w, cartView(store))
	}
}

func resolveAddOns(product *models.Product, ids []string) ([]models.AddOnService, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	byID := make(map[uuid.UUID]models.AddOnService, len(product.AddOns))
	for _, addOn := range product.AddOns {
		byID[addOn.ID] = addOn
	}

	out := make([]models.AddOnService, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid add-on id")
		}
		addOn, ok := byID[id]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("add-on %s does not belong to product %s", id, product.ID))
		}
		out = append(out, addOn)
	}
	return out, nil
}
