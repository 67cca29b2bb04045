package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one persisted cart row for a customer. Price and name are
// resolved through the Product association at read time so the cart always
// reflects current catalog pricing.
type CartItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index:idx_cart_items_customer"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity   int       `gorm:"column:quantity;not null"`
	Product    *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
