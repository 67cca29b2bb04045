package enums

import "fmt"

// PaymentMethod identifies how the buyer settles an order.
type PaymentMethod string

const (
	// PaymentMethodCOD settles on delivery; the order completes synchronously.
	PaymentMethodCOD PaymentMethod = "cod"
	// PaymentMethodVNPay redirects the buyer to the gateway checkout page.
	PaymentMethodVNPay PaymentMethod = "vnpay"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCOD,
	PaymentMethodVNPay,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// RequiresGateway reports whether placing an order must hand off to an
// external payment URL.
func (p PaymentMethod) RequiresGateway() bool {
	return p == PaymentMethodVNPay
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
