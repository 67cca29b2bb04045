package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/namprobe/nekovi-checkout/pkg/enums"
)

// Coupon is immutable once fetched; checkout decides eligibility and
// selection membership but never mutates the row itself.
type Coupon struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string             `gorm:"column:code;not null;uniqueIndex:ux_coupons_code"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue int64              `gorm:"column:discount_value_vnd;not null"`
	// MaxDiscountCap bounds a percentage discount; zero or null means uncapped.
	MaxDiscountCap *int64    `gorm:"column:max_discount_cap_vnd"`
	MinOrderAmount int64     `gorm:"column:min_order_amount_vnd;not null;default:0"`
	StartDate      time.Time `gorm:"column:start_date;not null"`
	EndDate        time.Time `gorm:"column:end_date;not null"`
	UsageLimit     *int      `gorm:"column:usage_limit"`
	RemainingSlots *int      `gorm:"column:remaining_slots"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// IsLive reports whether the coupon window is open at the given instant and
// slots remain.
func (c Coupon) IsLive(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.StartDate) || now.After(c.EndDate) {
		return false
	}
	if c.RemainingSlots != nil && *c.RemainingSlots <= 0 {
		return false
	}
	return true
}

// CustomerCoupon links a collected coupon to a customer wallet. The coupon
// service owns the collected → used/expired lifecycle.
type CustomerCoupon struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID          `gorm:"column:customer_id;type:uuid;not null;index:idx_customer_coupons_customer"`
	CouponID   uuid.UUID          `gorm:"column:coupon_id;type:uuid;not null"`
	Status     enums.CouponStatus `gorm:"column:status;not null;default:'collected'"`
	Coupon     *Coupon            `gorm:"foreignKey:CouponID"`
	UsedAt     *time.Time         `gorm:"column:used_at"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
