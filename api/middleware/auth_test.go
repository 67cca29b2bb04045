package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/namprobe/nekovi-checkout/pkg/auth"
	"github.com/namprobe/nekovi-checkout/pkg/config"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "unit-test-secret",
	Issuer:            "nekovi-test",
	ExpirationMinutes: 5,
}

func mintToken(t *testing.T, customerID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testJWTConfig, time.Now(), pkgAuth.AccessTokenClaims{CustomerID: customerID})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func captureCustomer(seen **uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = CustomerIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	var seen *uuid.UUID
	handler := Auth(testJWTConfig, nil)(captureCustomer(&seen))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if seen != nil {
		t.Fatalf("handler should not have run")
	}
}

func TestAuthSeedsCustomerContext(t *testing.T) {
	customerID := uuid.New()
	var seen *uuid.UUID
	handler := Auth(testJWTConfig, nil)(captureCustomer(&seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, customerID))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if seen == nil || *seen != customerID {
		t.Fatalf("customer context not seeded: %v", seen)
	}
}

func TestAuthRejectsForgedToken(t *testing.T) {
	forged := config.JWTConfig{Secret: "other-secret", Issuer: testJWTConfig.Issuer, ExpirationMinutes: 5}
	token, err := pkgAuth.MintAccessToken(forged, time.Now(), pkgAuth.AccessTokenClaims{CustomerID: uuid.New()})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	var seen *uuid.UUID
	handler := Auth(testJWTConfig, nil)(captureCustomer(&seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOptionalAuthPassesGuestsThrough(t *testing.T) {
	var seen *uuid.UUID
	handler := OptionalAuth(testJWTConfig, nil)(captureCustomer(&seen))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if seen != nil {
		t.Fatalf("guest request should carry no customer context")
	}
}

func TestOptionalAuthStillRejectsInvalidToken(t *testing.T) {
	var seen *uuid.UUID
	handler := OptionalAuth(testJWTConfig, nil)(captureCustomer(&seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOptionalAuthAttachesCustomerWhenPresent(t *testing.T) {
	customerID := uuid.New()
	var seen *uuid.UUID
	handler := OptionalAuth(testJWTConfig, nil)(captureCustomer(&seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, customerID))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if seen == nil || *seen != customerID {
		t.Fatalf("customer context not seeded: %v", seen)
	}
}
