package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
	"github.com/namprobe/nekovi-checkout/pkg/types"
)

// Repository persists orders and their item/coupon snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, meta *types.JSONMap) (bool, error)
	MarkPaymentFailed(ctx context.Context, id uuid.UUID, meta *types.JSONMap) (bool, error)
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	MarkExpired(ctx context.Context, ids []uuid.UUID, expiredAt time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed order repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("CouponIDs").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPaid completes a pending order. The status guard makes replayed
// gateway returns a no-op; the bool reports whether this call won.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, meta *types.JSONMap) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusPendingPayment).
		Updates(map[string]any{
			"status":       enums.OrderStatusCompleted,
			"paid_at":      paidAt,
			"gateway_meta": meta,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *repository) MarkPaymentFailed(ctx context.Context, id uuid.UUID, meta *types.JSONMap) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusPendingPayment).
		Updates(map[string]any{
			"status":       enums.OrderStatusPaymentFailed,
			"gateway_meta": meta,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *repository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	query := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusPendingPayment, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkExpired(ctx context.Context, ids []uuid.UUID, expiredAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id IN ? AND status = ?", ids, enums.OrderStatusPendingPayment).
		Updates(map[string]any{
			"status":     enums.OrderStatusExpired,
			"expired_at": expiredAt,
		})
	return result.RowsAffected, result.Error
}
