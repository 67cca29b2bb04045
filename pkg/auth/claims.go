package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims represents the typed JWT issued by the identity service.
// Checkout only consumes it; minting lives with identity.
type AccessTokenClaims struct {
	CustomerID uuid.UUID `json:"customer_id"`
	jwt.RegisteredClaims
}
