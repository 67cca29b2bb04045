package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/namprobe/nekovi-checkout/pkg/enums"
	"github.com/namprobe/nekovi-checkout/pkg/types"
)

// Order is the persisted result of one checkout submission. Retried submits
// create new rows; an order is never mutated back into a draft.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID *uuid.UUID        `gorm:"column:customer_id;type:uuid;index:idx_orders_customer"`
	Origin     enums.OrderOrigin `gorm:"column:origin;not null"`
	Status     enums.OrderStatus `gorm:"column:status;not null"`

	SubtotalVND         int64 `gorm:"column:subtotal_vnd;not null"`
	ProductDiscountVND  int64 `gorm:"column:product_discount_vnd;not null;default:0"`
	ShippingFeeVND      int64 `gorm:"column:shipping_fee_vnd;not null;default:0"`
	ShippingDiscountVND int64 `gorm:"column:shipping_discount_vnd;not null;default:0"`
	TaxVND              int64 `gorm:"column:tax_vnd;not null;default:0"`
	TotalVND            int64 `gorm:"column:total_vnd;not null"`

	PaymentMethod enums.PaymentMethod  `gorm:"column:payment_method;not null"`
	PaymentURL    *string              `gorm:"column:payment_url"`
	ShippingQuote *types.ShippingQuote `gorm:"column:shipping_quote;type:jsonb"`
	GuestInfo     *types.GuestInfo     `gorm:"column:guest_info;type:jsonb"`
	// GatewayMeta carries the opaque Base64+JSON block echoed back by the
	// payment return; stored unchanged.
	GatewayMeta *types.JSONMap `gorm:"column:gateway_meta;type:jsonb"`

	CouponIDs []CouponUsage `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Items     []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	PaidAt    *time.Time `gorm:"column:paid_at"`
	ExpiredAt *time.Time `gorm:"column:expired_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots a line item at submit time.
type OrderItem struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID `gorm:"column:order_id;type:uuid;not null;index:idx_order_items_order"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name         string    `gorm:"column:name;not null"`
	UnitPriceVND int64     `gorm:"column:unit_price_vnd;not null"`
	Quantity     int       `gorm:"column:quantity;not null"`
	ImageURL     *string   `gorm:"column:image_url"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// CouponUsage records which coupons were applied to an order and what each
// one discounted.
type CouponUsage struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index:idx_coupon_usages_order"`
	CouponID     uuid.UUID          `gorm:"column:coupon_id;type:uuid;not null"`
	DiscountType enums.DiscountType `gorm:"column:discount_type;not null"`
	AmountVND    int64              `gorm:"column:amount_vnd;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}
