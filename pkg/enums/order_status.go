package enums

import "fmt"

// OrderStatus tracks an order from placement through payment reconciliation.
type OrderStatus string

const (
	// OrderStatusPendingPayment means the buyer was handed off to the
	// payment gateway and the return callback has not landed yet.
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusPaymentFailed  OrderStatus = "payment_failed"
	OrderStatusExpired        OrderStatus = "expired"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusCompleted,
	OrderStatusPaymentFailed,
	OrderStatusExpired,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusCompleted || o == OrderStatusExpired
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
