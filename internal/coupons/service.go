package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
)

// EligibleCoupon pairs a collected coupon with its resolved outcome against
// the current subtotal so the list endpoint can show why a coupon does not
// apply yet.
type EligibleCoupon struct {
	Coupon  models.Coupon `json:"coupon"`
	Outcome CouponOutcome `json:"outcome"`
}

// Service exposes coupon listing and manual code entry for checkout.
type Service interface {
	ListEligible(ctx context.Context, customerID uuid.UUID, subtotalVND, shippingFeeVND int64) ([]EligibleCoupon, error)
	ResolveCode(ctx context.Context, customerID uuid.UUID, code string) (*models.Coupon, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the coupon service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) ListEligible(ctx context.Context, customerID uuid.UUID, subtotalVND, shippingFeeVND int64) ([]EligibleCoupon, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	collected, err := s.repo.ListCollected(ctx, customerID, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list collected coupons")
	}

	eligible := make([]EligibleCoupon, 0, len(collected))
	for _, row := range collected {
		if row.Coupon == nil {
			continue
		}
		coupon := *row.Coupon
		if !coupon.IsLive(s.now()) {
			continue
		}
		resolution := Resolve(subtotalVND, shippingFeeVND, []models.Coupon{coupon})
		outcome := CouponOutcome{CouponID: coupon.ID, Code: coupon.Code, DiscountType: coupon.DiscountType, MinOrderAmountVND: coupon.MinOrderAmount}
		if len(resolution.Outcomes) == 1 {
			outcome = resolution.Outcomes[0]
		}
		eligible = append(eligible, EligibleCoupon{Coupon: coupon, Outcome: outcome})
	}

	return eligible, nil
}

// ResolveCode looks up a manually entered code and verifies the customer
// holds it. Constraint checks against the current selection happen in the
// checkout session, on the same path picked coupons take.
func (s *service) ResolveCode(ctx context.Context, customerID uuid.UUID, code string) (*models.Coupon, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}

	coupon, err := s.repo.FindByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon code not recognized")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find coupon by code")
	}

	if !coupon.IsLive(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not currently active")
	}

	if customerID != uuid.Nil {
		if _, err := s.repo.FindCollected(ctx, customerID, coupon.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon has not been collected")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find collected coupon")
		}
	}

	return coupon, nil
}
