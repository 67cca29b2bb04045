package shipping

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/namprobe/nekovi-checkout/pkg/config"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
)

func TestClientQuoteFeeRequest(t *testing.T) {
	const expectedURL = "http://ship.test/v2/shipping-order/fee"
	respBody := `{"data":{"total":35000,"discount":5000}}`

	var capturedURL string
	var capturedHeaders http.Header

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()

		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload["service_id"] != "ghn-express" {
			t.Fatalf("unexpected service id %q", payload["service_id"])
		}
		if payload["to_province"] != "Ha Noi" {
			t.Fatalf("unexpected province %q", payload["to_province"])
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client := newTestClient(t, rt)

	quote, err := client.QuoteFee(context.Background(), FeeRequest{
		ShippingMethodID: "ghn-express",
		ToProvince:       "Ha Noi",
		ToDistrict:       "Cau Giay",
		ToWard:           "Dich Vong",
	})
	if err != nil {
		t.Fatalf("quote fee: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("Token") != "test-token" {
		t.Fatalf("token header missing")
	}
	if capturedHeaders.Get("ShopId") != "shop-1" {
		t.Fatalf("shop id header missing")
	}
	if quote.FeeOriginalVND != 35000 || quote.FeeDiscountVND != 5000 {
		t.Fatalf("unexpected quote %+v", quote)
	}
	if quote.PayableFee() != 30000 {
		t.Fatalf("unexpected payable fee %d", quote.PayableFee())
	}
}

func TestClientQuoteLeadTimeRequest(t *testing.T) {
	const expectedURL = "http://ship.test/v2/shipping-order/leadtime"
	respBody := `{"data":{"leadtime_days":3}}`

	var capturedURL string

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client := newTestClient(t, rt)

	days, err := client.QuoteLeadTime(context.Background(), FeeRequest{
		ShippingMethodID: "ghn-express",
		ToProvince:       "Ha Noi",
	})
	if err != nil {
		t.Fatalf("quote lead time: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if days != 3 {
		t.Fatalf("unexpected lead time %d", days)
	}
}

func TestClientQuoteFeeProviderFailure(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(strings.NewReader(`{"message":"upstream down"}`)),
			Header:     http.Header{},
		}, nil
	})

	client := newTestClient(t, rt)

	_, err := client.QuoteFee(context.Background(), FeeRequest{
		ShippingMethodID: "ghn-express",
		ToProvince:       "Ha Noi",
	})
	if err == nil {
		t.Fatalf("expected provider failure")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("unexpected code %s", appErr.Code())
	}
}

func TestClientQuoteFeeRequiresMethod(t *testing.T) {
	client := newTestClient(t, nil)

	_, err := client.QuoteFee(context.Background(), FeeRequest{ToProvince: "Ha Noi"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	cfg := config.ShippingConfig{
		BaseURL: "http://ship.test/v2",
		Token:   "test-token",
		ShopID:  "shop-1",
	}
	opts := []Option{}
	if rt != nil {
		opts = append(opts, WithHTTPClient(&http.Client{Transport: rt}))
	}
	client, err := NewClient(cfg, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
