package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/pagination"
)

// Repository defines persistence operations for cart rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListPage(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.CartItem, error)
	ListAll(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error)
	Count(ctx context.Context, customerID uuid.UUID) (int64, error)
	FindItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartItem, error)
	FindByProduct(ctx context.Context, customerID, productID uuid.UUID) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	Delete(ctx context.Context, itemID uuid.UUID) error
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListPage(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.CartItem, error) {
	norm := pagination.Normalize(params)
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Order("id ASC").
		Offset(norm.Offset()).
		Limit(norm.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListAll(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Count(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

func (r *repository) FindItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ? AND customer_id = ?", itemID, customerID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByProduct(ctx context.Context, customerID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) Create(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (r *repository) Delete(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", itemID).
		Delete(&models.CartItem{}).Error
}

func (r *repository) Clear(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Delete(&models.CartItem{}).Error
}
