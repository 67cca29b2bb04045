package coupons

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
)

// Repository defines persistence operations for coupon tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListCollected(ctx context.Context, customerID uuid.UUID, now time.Time) ([]models.CustomerCoupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Coupon, error)
	FindCollected(ctx context.Context, customerID, couponID uuid.UUID) (*models.CustomerCoupon, error)
	MarkUsed(ctx context.Context, customerID uuid.UUID, couponIDs []uuid.UUID, usedAt time.Time) error
	DecrementSlots(ctx context.Context, couponIDs []uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a coupons repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListCollected(ctx context.Context, customerID uuid.UUID, now time.Time) ([]models.CustomerCoupon, error) {
	var rows []models.CustomerCoupon
	err := r.db.WithContext(ctx).
		Preload("Coupon").
		Joins("JOIN coupons ON coupons.id = customer_coupons.coupon_id").
		Where("customer_coupons.customer_id = ?", customerID).
		Where("customer_coupons.status = ?", enums.CouponStatusCollected).
		Where("coupons.is_active = ?", true).
		Where("coupons.start_date <= ?", now).
		Where("coupons.end_date >= ?", now).
		Order("customer_coupons.created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Coupon, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Coupon
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindCollected(ctx context.Context, customerID, couponID uuid.UUID) (*models.CustomerCoupon, error) {
	var row models.CustomerCoupon
	err := r.db.WithContext(ctx).
		Preload("Coupon").
		Where("customer_id = ? AND coupon_id = ?", customerID, couponID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) MarkUsed(ctx context.Context, customerID uuid.UUID, couponIDs []uuid.UUID, usedAt time.Time) error {
	if len(couponIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.CustomerCoupon{}).
		Where("customer_id = ? AND coupon_id IN ?", customerID, couponIDs).
		Updates(map[string]any{
			"status":  enums.CouponStatusUsed,
			"used_at": usedAt,
		}).Error
}

func (r *repository) DecrementSlots(ctx context.Context, couponIDs []uuid.UUID) error {
	if len(couponIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id IN ?", couponIDs).
		Where("remaining_slots IS NOT NULL AND remaining_slots > 0").
		UpdateColumn("remaining_slots", gorm.Expr("remaining_slots - 1")).Error
}
