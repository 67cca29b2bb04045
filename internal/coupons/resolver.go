package coupons

import (
	"github.com/google/uuid"

	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
	"github.com/namprobe/nekovi-checkout/pkg/money"
)

// CouponOutcome reports, per selected coupon, whether it qualified and what
// it discounted. Ineligible coupons stay in the result with a zero amount so
// the caller can name exactly which coupon missed its minimum.
type CouponOutcome struct {
	CouponID          uuid.UUID          `json:"coupon_id"`
	Code              string             `json:"code"`
	DiscountType      enums.DiscountType `json:"discount_type"`
	AmountVND         int64              `json:"amount_vnd"`
	Qualifies         bool               `json:"qualifies"`
	MinOrderAmountVND int64              `json:"min_order_amount_vnd"`
}

// Resolution is the combined discount for one selection against one subtotal.
type Resolution struct {
	ProductDiscountVND  int64           `json:"product_discount_vnd"`
	ShippingDiscountVND int64           `json:"shipping_discount_vnd"`
	Outcomes            []CouponOutcome `json:"outcomes"`
}

// AllQualify reports whether every selected coupon met its minimum.
func (r Resolution) AllQualify() bool {
	for _, outcome := range r.Outcomes {
		if !outcome.Qualifies {
			return false
		}
	}
	return true
}

// Resolve computes discounts for the selection against the current subtotal
// and original shipping fee. It reads only its inputs, so recomputing after
// any subtotal change is deterministic and idempotent. An ineligible coupon
// contributes zero but never blocks the order.
func Resolve(subtotalVND, shippingFeeVND int64, selection []models.Coupon) Resolution {
	resolution := Resolution{
		Outcomes: make([]CouponOutcome, 0, len(selection)),
	}

	for _, coupon := range selection {
		outcome := CouponOutcome{
			CouponID:          coupon.ID,
			Code:              coupon.Code,
			DiscountType:      coupon.DiscountType,
			MinOrderAmountVND: coupon.MinOrderAmount,
		}

		if subtotalVND < coupon.MinOrderAmount {
			resolution.Outcomes = append(resolution.Outcomes, outcome)
			continue
		}
		outcome.Qualifies = true

		switch coupon.DiscountType {
		case enums.DiscountTypePercentage:
			raw := money.PercentOf(subtotalVND, float64(coupon.DiscountValue))
			if coupon.MaxDiscountCap != nil && *coupon.MaxDiscountCap > 0 {
				raw = money.Min(raw, *coupon.MaxDiscountCap)
			}
			outcome.AmountVND = money.Min(raw, subtotalVND)
			resolution.ProductDiscountVND = outcome.AmountVND

		case enums.DiscountTypeFixed:
			outcome.AmountVND = money.Min(coupon.DiscountValue, subtotalVND)
			resolution.ProductDiscountVND = outcome.AmountVND

		case enums.DiscountTypeFreeShipping:
			// A zero value means the coupon waives the full fee.
			waived := shippingFeeVND
			if coupon.DiscountValue > 0 {
				waived = money.Min(shippingFeeVND, coupon.DiscountValue)
			}
			outcome.AmountVND = waived
			resolution.ShippingDiscountVND = waived
		}

		resolution.Outcomes = append(resolution.Outcomes, outcome)
	}

	return resolution
}
