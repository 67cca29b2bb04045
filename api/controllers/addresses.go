package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/namprobe/nekovi-checkout/api/responses"
	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/logger"
)

type addressLister interface {
	List(ctx context.Context, customerID uuid.UUID) ([]models.Address, error)
}

// AddressList returns the customer's saved addresses for the shipping step.
func AddressList(svc addressLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}
