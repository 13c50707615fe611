package controllers

import (
	"net/http"

	"github.com/rdelacruz/freshmarket-backend/api/middleware"
	"github.com/rdelacruz/freshmarket-backend/api/responses"
	"github.com/rdelacruz/freshmarket-backend/api/validators"
	"github.com/rdelacruz/freshmarket-backend/internal/cart"
	"github.com/rdelacruz/freshmarket-backend/internal/checkout"
	pkgerrors "github.com/rdelacruz/freshmarket-backend/pkg/errors"
	"github.com/rdelacruz/freshmarket-backend/pkg/logger"
)

// SubmitCheckout runs the submission pipeline for the session cart. On
// success the cart is already cleared and the response carries the full
// order so the confirmation view renders without another read.
func SubmitCheckout(svc checkout.Service, manager *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkout.DeliveryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, ok := manager.Lookup(middleware.SessionIDFromContext(r.Context()))
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
			return
		}

		confirmation, err := svc.Submit(r.Context(), store, req, nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, confirmation)
	}
}
