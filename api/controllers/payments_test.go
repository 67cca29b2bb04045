package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	paymentsvc "github.com/namprobe/nekovi-checkout/internal/payments"
	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
)

type stubPaymentService struct {
	outcome   *paymentsvc.ReturnOutcome
	order     *models.Order
	err       error
	lastQuery url.Values
}

func (s *stubPaymentService) HandleReturn(ctx context.Context, query url.Values) (*paymentsvc.ReturnOutcome, error) {
	s.lastQuery = query
	return s.outcome, s.err
}

func (s *stubPaymentService) Order(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func TestPaymentReturnSuccess(t *testing.T) {
	orderID := uuid.New()
	svc := &stubPaymentService{outcome: &paymentsvc.ReturnOutcome{
		OrderID: orderID,
		Status:  enums.OrderStatusCompleted,
		Success: true,
	}}
	handler := PaymentReturn(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/payments/vnpay/return?vnp_TxnRef="+orderID.String()+"&vnp_ResponseCode=00", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastQuery.Get("vnp_ResponseCode") != "00" {
		t.Fatalf("query not forwarded: %v", svc.lastQuery)
	}

	var envelope struct {
		Data paymentsvc.ReturnOutcome `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderID != orderID || !envelope.Data.Success {
		t.Fatalf("unexpected outcome %+v", envelope.Data)
	}
}

func TestPaymentReturnTamperedSignature(t *testing.T) {
	svc := &stubPaymentService{err: pkgerrors.New(pkgerrors.CodeGateway, "signature mismatch")}
	handler := PaymentReturn(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/payments/vnpay/return?vnp_SecureHash=bogus", nil))

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", resp.Code)
	}
}

func TestPaymentOrderStatus(t *testing.T) {
	orderID := uuid.New()
	svc := &stubPaymentService{order: &models.Order{ID: orderID, Status: enums.OrderStatusCompleted, TotalVND: 830000}}
	handler := PaymentOrderStatus(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/orders/"+orderID.String(), nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["total_vnd"].(float64) != 830000 {
		t.Fatalf("unexpected total %v", envelope.Data["total_vnd"])
	}
}

func TestPaymentOrderStatusRejectsBadID(t *testing.T) {
	handler := PaymentOrderStatus(&stubPaymentService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/orders/not-a-uuid", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
