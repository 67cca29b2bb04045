package controllers

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/namprobe/nekovi-checkout/api/middleware"
	"github.com/namprobe/nekovi-checkout/api/responses"
	"github.com/namprobe/nekovi-checkout/api/validators"
	checkoutsvc "github.com/namprobe/nekovi-checkout/internal/checkout"
	"github.com/namprobe/nekovi-checkout/internal/coupons"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
	"github.com/namprobe/nekovi-checkout/pkg/logger"
	"github.com/namprobe/nekovi-checkout/pkg/types"
)

type checkoutService interface {
	StartCartCheckout(ctx context.Context, customerID uuid.UUID) (*checkoutsvc.Session, error)
	StartBuyNow(ctx context.Context, customerID *uuid.UUID, productID uuid.UUID, quantity int) (*checkoutsvc.Session, error)
	SetPage(ctx context.Context, key string, page int) (*checkoutsvc.Session, error)
	ToggleCoupon(ctx context.Context, key string, couponID uuid.UUID) (coupons.Decision, *checkoutsvc.Summary, error)
	ApplyCode(ctx context.Context, key, code string) (coupons.Decision, *checkoutsvc.Summary, error)
	SetPaymentMethod(ctx context.Context, key string, method enums.PaymentMethod) (*checkoutsvc.Session, error)
	SetGuestInfo(ctx context.Context, key string, info types.GuestInfo) (*checkoutsvc.Session, error)
	SelectAddress(ctx context.Context, key string, customerID, addressID uuid.UUID) (*checkoutsvc.Session, error)
	SelectShippingMethod(ctx context.Context, key, methodID string) (*checkoutsvc.Session, error)
	ResolveShipping(ctx context.Context, key string) (*checkoutsvc.Session, error)
	Submit(ctx context.Context, key, clientIP string) (*checkoutsvc.SubmissionResult, error)
	Summary(ctx context.Context, key string) (*checkoutsvc.Summary, error)
}

type startBuyNowRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=0"`
}

// CheckoutStartCart opens a checkout session over the customer's cart.
func CheckoutStartCart(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.StartCartCheckout(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// CheckoutStartBuyNow opens a single-product session. Guests are allowed.
func CheckoutStartBuyNow(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload startBuyNowRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID := middleware.CustomerIDFromContext(r.Context())
		session, err := svc.StartBuyNow(r.Context(), customerID, payload.ProductID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// CheckoutSummary renders the current state of one session.
func CheckoutSummary(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context(), sessionKey(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

type setPageRequest struct {
	Page int `json:"page" validate:"required,min=1"`
}

// CheckoutSetPage moves the cart window inside the summary.
func CheckoutSetPage(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload setPageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.SetPage(r.Context(), sessionKey(r), payload.Page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

type couponDecisionResponse struct {
	Action     coupons.Action       `json:"action"`
	ReplacedID *uuid.UUID           `json:"replaced_id,omitempty"`
	Reason     string               `json:"reason,omitempty"`
	Summary    *checkoutsvc.Summary `json:"summary,omitempty"`
}

func newCouponDecisionResponse(decision coupons.Decision, summary *checkoutsvc.Summary) couponDecisionResponse {
	resp := couponDecisionResponse{
		Action:  decision.Action,
		Reason:  decision.Reason,
		Summary: summary,
	}
	if decision.ReplacedID != uuid.Nil {
		replaced := decision.ReplacedID
		resp.ReplacedID = &replaced
	}
	return resp
}

type toggleCouponRequest struct {
	CouponID uuid.UUID `json:"coupon_id" validate:"required"`
}

// CheckoutToggleCoupon applies or removes one collected coupon.
func CheckoutToggleCoupon(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload toggleCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, summary, err := svc.ToggleCoupon(r.Context(), sessionKey(r), payload.CouponID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCouponDecisionResponse(decision, summary))
	}
}

type applyCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// CheckoutApplyCode runs a manually entered coupon code.
func CheckoutApplyCode(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload applyCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, summary, err := svc.ApplyCode(r.Context(), sessionKey(r), payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCouponDecisionResponse(decision, summary))
	}
}

type setPaymentMethodRequest struct {
	Method string `json:"method" validate:"required"`
}

// CheckoutSetPaymentMethod records the buyer's payment choice.
func CheckoutSetPaymentMethod(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload setPaymentMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		session, err := svc.SetPaymentMethod(r.Context(), sessionKey(r), method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

type setGuestInfoRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Address  string `json:"address" validate:"required"`
}

// CheckoutSetGuestInfo records guest contact details on a guest session.
func CheckoutSetGuestInfo(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload setGuestInfoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.SetGuestInfo(r.Context(), sessionKey(r), types.GuestInfo{
			FullName: payload.FullName,
			Phone:    payload.Phone,
			Email:    payload.Email,
			Address:  payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

type selectAddressRequest struct {
	AddressID uuid.UUID `json:"address_id" validate:"required"`
}

// CheckoutSelectAddress binds one of the customer's saved addresses.
func CheckoutSelectAddress(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload selectAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.SelectAddress(r.Context(), sessionKey(r), customerID, payload.AddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

type selectMethodRequest struct {
	MethodID string `json:"method_id" validate:"required"`
}

// CheckoutSelectShippingMethod records the chosen carrier service.
func CheckoutSelectShippingMethod(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload selectMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.SelectShippingMethod(r.Context(), sessionKey(r), payload.MethodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// CheckoutResolveShipping runs the fee and lead-time lookups for the current
// address and method selection.
func CheckoutResolveShipping(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := svc.ResolveShipping(r.Context(), sessionKey(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// CheckoutSubmit places the order for one session.
func CheckoutSubmit(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Submit(r.Context(), sessionKey(r), clientIP(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func sessionKey(r *http.Request) string {
	return chi.URLParam(r, "sessionKey")
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
