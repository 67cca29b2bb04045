package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/namprobe/nekovi-checkout/api/responses"
	couponsvc "github.com/namprobe/nekovi-checkout/internal/coupons"
	"github.com/namprobe/nekovi-checkout/pkg/logger"
)

type couponLister interface {
	ListEligible(ctx context.Context, customerID uuid.UUID, subtotalVND, shippingFeeVND int64) ([]couponsvc.EligibleCoupon, error)
}

// CheckoutListCoupons lists the customer's collected coupons resolved
// against the session's current subtotal, so the picker can show which
// ones do not apply yet and why.
func CheckoutListCoupons(checkout checkoutService, coupons couponLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := checkout.Summary(r.Context(), sessionKey(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eligible, err := coupons.ListEligible(r.Context(), customerID, summary.Draft.SubtotalVND, summary.ShippingFeeVND)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, eligible)
	}
}
