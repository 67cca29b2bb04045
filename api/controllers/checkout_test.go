package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/namprobe/nekovi-checkout/api/middleware"
	checkoutsvc "github.com/namprobe/nekovi-checkout/internal/checkout"
	"github.com/namprobe/nekovi-checkout/internal/coupons"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
	"github.com/namprobe/nekovi-checkout/pkg/types"
)

type stubCheckoutService struct {
	session  *checkoutsvc.Session
	summary  *checkoutsvc.Summary
	decision coupons.Decision
	result   *checkoutsvc.SubmissionResult
	err      error

	lastKey      string
	lastQuantity int
	lastMethod   enums.PaymentMethod
	lastClientIP string
}

func (s *stubCheckoutService) StartCartCheckout(ctx context.Context, customerID uuid.UUID) (*checkoutsvc.Session, error) {
	return s.session, s.err
}

func (s *stubCheckoutService) StartBuyNow(ctx context.Context, customerID *uuid.UUID, productID uuid.UUID, quantity int) (*checkoutsvc.Session, error) {
	s.lastQuantity = quantity
	return s.session, s.err
}

func (s *stubCheckoutService) SetPage(ctx context.Context, key string, page int) (*checkoutsvc.Session, error) {
	s.lastKey = key
	return s.session, s.err
}

func (s *stubCheckoutService) ToggleCoupon(ctx context.Context, key string, couponID uuid.UUID) (coupons.Decision, *checkoutsvc.Summary, error) {
	s.lastKey = key
	return s.decision, s.summary, s.err
}

func (s *stubCheckoutService) ApplyCode(ctx context.Context, key, code string) (coupons.Decision, *checkoutsvc.Summary, error) {
	s.lastKey = key
	return s.decision, s.summary, s.err
}

func (s *stubCheckoutService) SetPaymentMethod(ctx context.Context, key string, method enums.PaymentMethod) (*checkoutsvc.Session, error) {
	s.lastKey = key
	s.lastMethod = method
	return s.session, s.err
}

func (s *stubCheckoutService) SetGuestInfo(ctx context.Context, key string, info types.GuestInfo) (*checkoutsvc.Session, error) {
	s.lastKey = key
	return s.session, s.err
}

func (s *stubCheckoutService) SelectAddress(ctx context.Context, key string, customerID, addressID uuid.UUID) (*checkoutsvc.Session, error) {
	s.lastKey = key
	return s.session, s.err
}

func (s *stubCheckoutService) SelectShippingMethod(ctx context.Context, key, methodID string) (*checkoutsvc.Session, error) {
	s.lastKey = key
	return s.session, s.err
}

func (s *stubCheckoutService) ResolveShipping(ctx context.Context, key string) (*checkoutsvc.Session, error) {
	s.lastKey = key
	return s.session, s.err
}

func (s *stubCheckoutService) Submit(ctx context.Context, key, clientIP string) (*checkoutsvc.SubmissionResult, error) {
	s.lastKey = key
	s.lastClientIP = clientIP
	return s.result, s.err
}

func (s *stubCheckoutService) Summary(ctx context.Context, key string) (*checkoutsvc.Summary, error) {
	s.lastKey = key
	return s.summary, s.err
}

func sessionRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("sessionKey", "sess-123")
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCheckoutStartCartRequiresAuth(t *testing.T) {
	handler := CheckoutStartCart(&stubCheckoutService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/cart", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutStartBuyNowAllowsGuests(t *testing.T) {
	svc := &stubCheckoutService{session: &checkoutsvc.Session{Key: "sess-123", Origin: enums.OrderOriginBuyNow}}
	handler := CheckoutStartBuyNow(svc, nil)

	body := `{"product_id":"` + uuid.NewString() + `","quantity":2}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/buy-now", strings.NewReader(body)))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.lastQuantity != 2 {
		t.Fatalf("unexpected quantity %d", svc.lastQuantity)
	}
}

func TestCheckoutSummaryUsesSessionKey(t *testing.T) {
	svc := &stubCheckoutService{summary: &checkoutsvc.Summary{TotalVND: 450000}}
	handler := CheckoutSummary(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodGet, "/api/v1/checkout/sessions/sess-123", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastKey != "sess-123" {
		t.Fatalf("unexpected session key %s", svc.lastKey)
	}

	var envelope struct {
		Data checkoutsvc.Summary `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.TotalVND != 450000 {
		t.Fatalf("unexpected total %d", envelope.Data.TotalVND)
	}
}

func TestCheckoutToggleCouponRejection(t *testing.T) {
	svc := &stubCheckoutService{
		decision: coupons.Decision{Action: coupons.ActionReject, Reason: coupons.ReasonMutuallyExclusive},
		summary:  &checkoutsvc.Summary{},
	}
	handler := CheckoutToggleCoupon(svc, nil)

	body := `{"coupon_id":"` + uuid.NewString() + `"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/checkout/sessions/sess-123/coupons/toggle", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data couponDecisionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Action != coupons.ActionReject {
		t.Fatalf("unexpected action %s", envelope.Data.Action)
	}
	if envelope.Data.Reason != coupons.ReasonMutuallyExclusive {
		t.Fatalf("unexpected reason %s", envelope.Data.Reason)
	}
}

func TestCheckoutSetPaymentMethodRejectsUnknown(t *testing.T) {
	svc := &stubCheckoutService{session: &checkoutsvc.Session{}}
	handler := CheckoutSetPaymentMethod(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodPut, "/api/v1/checkout/sessions/sess-123/payment-method", `{"method":"bitcoin"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutSetPaymentMethodSuccess(t *testing.T) {
	svc := &stubCheckoutService{session: &checkoutsvc.Session{}}
	handler := CheckoutSetPaymentMethod(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodPut, "/api/v1/checkout/sessions/sess-123/payment-method", `{"method":"cod"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastMethod != enums.PaymentMethodCOD {
		t.Fatalf("unexpected method %s", svc.lastMethod)
	}
}

func TestCheckoutSubmitForwardsClientIP(t *testing.T) {
	svc := &stubCheckoutService{result: &checkoutsvc.SubmissionResult{State: enums.SubmissionStateCompleted, TotalVND: 830000}}
	handler := CheckoutSubmit(svc, nil)

	req := sessionRequest(http.MethodPost, "/api/v1/checkout/sessions/sess-123/submit", "")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastClientIP != "203.0.113.7" {
		t.Fatalf("unexpected client ip %s", svc.lastClientIP)
	}
}

func TestCheckoutSubmitMapsConflict(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeConflict, "submission already in progress")}
	handler := CheckoutSubmit(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/checkout/sessions/sess-123/submit", ""))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestCheckoutSelectAddressRequiresAuth(t *testing.T) {
	handler := CheckoutSelectAddress(&stubCheckoutService{}, nil)

	body := `{"address_id":"` + uuid.NewString() + `"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodPut, "/api/v1/checkout/sessions/sess-123/address", body))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutSelectAddressSuccess(t *testing.T) {
	svc := &stubCheckoutService{session: &checkoutsvc.Session{Key: "sess-123"}}
	handler := CheckoutSelectAddress(svc, nil)

	body := `{"address_id":"` + uuid.NewString() + `"}`
	req := sessionRequest(http.MethodPut, "/api/v1/checkout/sessions/sess-123/address", body)
	req = req.WithContext(middleware.WithCustomerID(req.Context(), uuid.New()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastKey != "sess-123" {
		t.Fatalf("unexpected session key %s", svc.lastKey)
	}
}
