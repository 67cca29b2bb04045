package controllers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/namprobe/nekovi-checkout/api/responses"
	paymentsvc "github.com/namprobe/nekovi-checkout/internal/payments"
	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
	"github.com/namprobe/nekovi-checkout/pkg/logger"
)

type paymentService interface {
	HandleReturn(ctx context.Context, query url.Values) (*paymentsvc.ReturnOutcome, error)
	Order(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// PaymentReturn settles the gateway redirect. The gateway appends its signed
// result as query parameters; replays resolve to the already-settled state.
func PaymentReturn(svc paymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcome, err := svc.HandleReturn(r.Context(), r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

// PaymentOrderStatus backs the post-payment landing page.
func PaymentOrderStatus(svc paymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Order(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"order_id":  order.ID,
			"status":    order.Status,
			"total_vnd": order.TotalVND,
		})
	}
}
