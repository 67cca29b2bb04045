package enums

import "fmt"

// CouponStatus tracks the lifecycle of a customer-collected coupon. The
// lifecycle is owned by the coupon service; checkout only reads it.
type CouponStatus string

const (
	CouponStatusCollected CouponStatus = "collected"
	CouponStatusUsed      CouponStatus = "used"
	CouponStatusExpired   CouponStatus = "expired"
)

var validCouponStatuses = []CouponStatus{
	CouponStatusCollected,
	CouponStatusUsed,
	CouponStatusExpired,
}

// String implements fmt.Stringer.
func (c CouponStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CouponStatus.
func (c CouponStatus) IsValid() bool {
	for _, candidate := range validCouponStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCouponStatus converts raw input into a CouponStatus.
func ParseCouponStatus(value string) (CouponStatus, error) {
	for _, candidate := range validCouponStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon status %q", value)
}
