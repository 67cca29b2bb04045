package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxCustomerID contextKey = "customer_id"

// CustomerIDFromContext returns the authenticated customer, or nil for guest
// requests.
func CustomerIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxCustomerID).(uuid.UUID); ok && v != uuid.Nil {
		id := v
		return &id
	}
	return nil
}

// WithCustomerID injects the customer identifier into the context.
func WithCustomerID(ctx context.Context, customerID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCustomerID, customerID)
}
