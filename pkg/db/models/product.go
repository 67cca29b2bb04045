package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the storefront catalog row consumed by cart and buy-now flows.
// Pricing and inventory ownership live with the catalog service; checkout
// only reads the fields needed to build line items.
type Product struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	PriceVND        int64     `gorm:"column:price_vnd;not null"`
	DiscountPercent *float64  `gorm:"column:discount_percent"`
	ImageURL        *string   `gorm:"column:image_url"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePriceVND applies the catalog discount percentage when present.
func (p Product) EffectivePriceVND() int64 {
	if p.DiscountPercent == nil || *p.DiscountPercent <= 0 {
		return p.PriceVND
	}
	discounted := float64(p.PriceVND) * (1 - *p.DiscountPercent/100)
	if discounted < 0 {
		return 0
	}
	return int64(discounted + 0.5)
}
