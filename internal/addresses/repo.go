package addresses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namprobe/nekovi-checkout/pkg/db/models"
)

// Repository defines persistence operations for customer addresses.
type Repository interface {
	List(ctx context.Context, customerID uuid.UUID) ([]models.Address, error)
	FindByID(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an addresses repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, customerID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default DESC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByID(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", addressID, customerID).
		First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}
