package coupons

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
)

func int64Ptr(v int64) *int64 { return &v }

func TestResolvePercentageWithCap(t *testing.T) {
	coupon := models.Coupon{
		ID:             uuid.New(),
		DiscountType:   enums.DiscountTypePercentage,
		DiscountValue:  20,
		MaxDiscountCap: int64Ptr(100_000),
	}

	resolution := Resolve(1_000_000, 0, []models.Coupon{coupon})
	assert.Equal(t, int64(100_000), resolution.ProductDiscountVND)
	require.Len(t, resolution.Outcomes, 1)
	assert.True(t, resolution.Outcomes[0].Qualifies)
}

func TestResolvePercentageUncapped(t *testing.T) {
	coupon := models.Coupon{
		ID:            uuid.New(),
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: 20,
	}

	resolution := Resolve(1_000_000, 0, []models.Coupon{coupon})
	assert.Equal(t, int64(200_000), resolution.ProductDiscountVND)
}

func TestResolveFixedNeverExceedsSubtotal(t *testing.T) {
	coupon := models.Coupon{
		ID:            uuid.New(),
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: 100_000,
	}

	resolution := Resolve(50_000, 0, []models.Coupon{coupon})
	assert.Equal(t, int64(50_000), resolution.ProductDiscountVND)
}

func TestResolveIneligibleCouponContributesZero(t *testing.T) {
	coupon := models.Coupon{
		ID:             uuid.New(),
		DiscountType:   enums.DiscountTypeFixed,
		DiscountValue:  50_000,
		MinOrderAmount: 500_000,
	}

	resolution := Resolve(200_000, 0, []models.Coupon{coupon})
	assert.Equal(t, int64(0), resolution.ProductDiscountVND)
	require.Len(t, resolution.Outcomes, 1)
	assert.False(t, resolution.Outcomes[0].Qualifies)
	assert.Equal(t, int64(500_000), resolution.Outcomes[0].MinOrderAmountVND)
	assert.False(t, resolution.AllQualify())
}

func TestResolveFreeShippingWaivesFee(t *testing.T) {
	coupon := models.Coupon{
		ID:           uuid.New(),
		DiscountType: enums.DiscountTypeFreeShipping,
	}

	resolution := Resolve(300_000, 35_000, []models.Coupon{coupon})
	assert.Equal(t, int64(0), resolution.ProductDiscountVND)
	assert.Equal(t, int64(35_000), resolution.ShippingDiscountVND)
}

func TestResolveFreeShippingWithValueCap(t *testing.T) {
	coupon := models.Coupon{
		ID:            uuid.New(),
		DiscountType:  enums.DiscountTypeFreeShipping,
		DiscountValue: 20_000,
	}

	resolution := Resolve(300_000, 35_000, []models.Coupon{coupon})
	assert.Equal(t, int64(20_000), resolution.ShippingDiscountVND)
}

func TestResolveCombinesProductAndShippingFamilies(t *testing.T) {
	percent := models.Coupon{
		ID:            uuid.New(),
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: 10,
	}
	freeship := models.Coupon{
		ID:           uuid.New(),
		DiscountType: enums.DiscountTypeFreeShipping,
	}

	resolution := Resolve(400_000, 30_000, []models.Coupon{percent, freeship})
	assert.Equal(t, int64(40_000), resolution.ProductDiscountVND)
	assert.Equal(t, int64(30_000), resolution.ShippingDiscountVND)
	assert.True(t, resolution.AllQualify())
}

func TestResolveIsIdempotent(t *testing.T) {
	selection := []models.Coupon{
		{
			ID:             uuid.New(),
			DiscountType:   enums.DiscountTypePercentage,
			DiscountValue:  15,
			MaxDiscountCap: int64Ptr(75_000),
		},
		{
			ID:           uuid.New(),
			DiscountType: enums.DiscountTypeFreeShipping,
		},
	}

	first := Resolve(620_000, 28_000, selection)
	for i := 0; i < 10; i++ {
		again := Resolve(620_000, 28_000, selection)
		assert.Equal(t, first, again)
	}
}
