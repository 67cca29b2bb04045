package vnpay

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/namprobe/nekovi-checkout/pkg/config"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
)

func newTestVNPayClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(config.VNPayConfig{
		BaseURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		TmnCode:    "NEKOVI01",
		HashSecret: "super-secret",
		ReturnURL:  "https://shop.test/payments/vnpay/return",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.now = func() time.Time {
		return time.Date(2025, 9, 3, 10, 30, 0, 0, time.UTC)
	}
	return client
}

func TestBuildPaymentURLSignsSortedParams(t *testing.T) {
	client := newTestVNPayClient(t)

	raw, err := client.BuildPaymentURL(context.Background(), PaymentRequest{
		OrderRef:  "order-123",
		AmountVND: 250000,
		ClientIP:  "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("build payment url: %v", err)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	q := parsed.Query()

	if q.Get("vnp_TmnCode") != "NEKOVI01" {
		t.Fatalf("unexpected tmn code %q", q.Get("vnp_TmnCode"))
	}
	if q.Get("vnp_Amount") != "25000000" {
		t.Fatalf("amount not scaled: %q", q.Get("vnp_Amount"))
	}
	if q.Get("vnp_TxnRef") != "order-123" {
		t.Fatalf("unexpected txn ref %q", q.Get("vnp_TxnRef"))
	}
	if q.Get("vnp_CreateDate") != "20250903103000" {
		t.Fatalf("unexpected create date %q", q.Get("vnp_CreateDate"))
	}

	hash := q.Get("vnp_SecureHash")
	if hash == "" {
		t.Fatalf("secure hash missing")
	}

	// The return path verifies with the same signer, so a clean round trip
	// must validate.
	result, err := client.DecodeReturn(withResponseCode(q, "00"))
	if err != nil {
		t.Fatalf("decode return: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success result")
	}
	if result.OrderRef != "order-123" {
		t.Fatalf("unexpected order ref %q", result.OrderRef)
	}
	if result.AmountVND != 250000 {
		t.Fatalf("unexpected amount %d", result.AmountVND)
	}
}

func TestDecodeReturnRejectsTamperedQuery(t *testing.T) {
	client := newTestVNPayClient(t)

	raw, err := client.BuildPaymentURL(context.Background(), PaymentRequest{
		OrderRef:  "order-123",
		AmountVND: 250000,
	})
	if err != nil {
		t.Fatalf("build payment url: %v", err)
	}

	parsed, _ := url.Parse(raw)
	q := withResponseCode(parsed.Query(), "00")
	q.Set("vnp_Amount", "100")

	_, err = client.DecodeReturn(q)
	if err == nil {
		t.Fatalf("expected signature mismatch")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeGateway {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestDecodeReturnFailureCode(t *testing.T) {
	client := newTestVNPayClient(t)

	raw, err := client.BuildPaymentURL(context.Background(), PaymentRequest{
		OrderRef:  "order-456",
		AmountVND: 99000,
	})
	if err != nil {
		t.Fatalf("build payment url: %v", err)
	}

	parsed, _ := url.Parse(raw)
	result, err := client.DecodeReturn(withResponseCode(parsed.Query(), "24"))
	if err != nil {
		t.Fatalf("decode return: %v", err)
	}
	if result.Success {
		t.Fatalf("expected cancelled payment to report failure")
	}
	if result.ResponseCode != "24" {
		t.Fatalf("unexpected response code %q", result.ResponseCode)
	}
}

func TestGatewayMetaRoundTrip(t *testing.T) {
	client := newTestVNPayClient(t)

	raw, err := client.BuildPaymentURL(context.Background(), PaymentRequest{
		OrderRef:  "order-789",
		AmountVND: 150000,
		Meta: map[string]any{
			"session": "chk_abc",
			"origin":  "buy_now",
		},
	})
	if err != nil {
		t.Fatalf("build payment url: %v", err)
	}
	if !strings.Contains(raw, "vnp_OrderMeta=") {
		t.Fatalf("metadata missing from url")
	}

	parsed, _ := url.Parse(raw)
	result, err := client.DecodeReturn(withResponseCode(parsed.Query(), "00"))
	if err != nil {
		t.Fatalf("decode return: %v", err)
	}
	if result.Meta["session"] != "chk_abc" {
		t.Fatalf("metadata lost: %+v", result.Meta)
	}
	if result.Meta["origin"] != "buy_now" {
		t.Fatalf("metadata lost: %+v", result.Meta)
	}
}

func TestBuildPaymentURLValidatesInput(t *testing.T) {
	client := newTestVNPayClient(t)

	_, err := client.BuildPaymentURL(context.Background(), PaymentRequest{AmountVND: 1000})
	if err == nil {
		t.Fatalf("expected missing order ref error")
	}

	_, err = client.BuildPaymentURL(context.Background(), PaymentRequest{OrderRef: "x", AmountVND: 0})
	if err == nil {
		t.Fatalf("expected non-positive amount error")
	}
}

// withResponseCode re-signs the query the way the gateway does when it adds
// outcome fields before redirecting back.
func withResponseCode(q url.Values, code string) url.Values {
	out := url.Values{}
	for key, values := range q {
		if key == "vnp_SecureHash" {
			continue
		}
		for _, v := range values {
			out.Add(key, v)
		}
	}
	out.Set("vnp_ResponseCode", code)

	signer := &Client{hashSecret: "super-secret"}
	out.Set("vnp_SecureHash", signer.sign(out))
	return out
}
