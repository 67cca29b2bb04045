package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a customer shipping destination. Selection during checkout is a
// reference to one of these rows, never a copy.
type Address struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index:idx_addresses_customer"`
	Province    string    `gorm:"column:province;not null"`
	District    string    `gorm:"column:district;not null"`
	Ward        string    `gorm:"column:ward;not null"`
	FullAddress string    `gorm:"column:full_address;not null"`
	IsDefault   bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
