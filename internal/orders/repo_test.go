package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
	"github.com/namprobe/nekovi-checkout/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT,
  origin TEXT NOT NULL,
  status TEXT NOT NULL,
  subtotal_vnd INTEGER NOT NULL,
  product_discount_vnd INTEGER NOT NULL DEFAULT 0,
  shipping_fee_vnd INTEGER NOT NULL DEFAULT 0,
  shipping_discount_vnd INTEGER NOT NULL DEFAULT 0,
  tax_vnd INTEGER NOT NULL DEFAULT 0,
  total_vnd INTEGER NOT NULL,
  payment_method TEXT NOT NULL,
  payment_url TEXT,
  shipping_quote TEXT,
  guest_info TEXT,
  gateway_meta TEXT,
  paid_at DATETIME,
  expired_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price_vnd INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  image_url TEXT,
  created_at DATETIME
);`
	couponUsages := `
CREATE TABLE IF NOT EXISTS coupon_usages (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  coupon_id TEXT NOT NULL,
  discount_type TEXT NOT NULL,
  amount_vnd INTEGER NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	require.NoError(t, db.Exec(couponUsages).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            uuid.New(),
		Origin:        enums.OrderOriginBuyNow,
		Status:        status,
		SubtotalVND:   450000,
		TotalVND:      450000,
		PaymentMethod: enums.PaymentMethodVNPay,
		CreatedAt:     createdAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryCreatePersistsSnapshots(t *testing.T) {
	ctx := context.Background()
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	orderID := uuid.New()
	order := &models.Order{
		ID:            orderID,
		Origin:        enums.OrderOriginCart,
		Status:        enums.OrderStatusCompleted,
		SubtotalVND:   800000,
		TotalVND:      830000,
		PaymentMethod: enums.PaymentMethodCOD,
		Items: []models.OrderItem{
			{ID: uuid.New(), OrderID: orderID, ProductID: uuid.New(), Name: "Figure", UnitPriceVND: 400000, Quantity: 2},
		},
		CouponIDs: []models.CouponUsage{
			{ID: uuid.New(), OrderID: orderID, CouponID: uuid.New(), DiscountType: enums.DiscountTypeFixed, AmountVND: 50000},
		},
	}
	require.NoError(t, repo.Create(ctx, order))

	loaded, err := repo.FindByID(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "Figure", loaded.Items[0].Name)
	require.Len(t, loaded.CouponIDs, 1)
	assert.Equal(t, int64(50000), loaded.CouponIDs[0].AmountVND)
}

func TestRepositoryMarkPaidIsGuarded(t *testing.T) {
	ctx := context.Background()
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := seedOrder(t, db, enums.OrderStatusPendingPayment, time.Now())

	meta := types.JSONMap{"vnp_ResponseCode": "00"}
	won, err := repo.MarkPaid(ctx, order.ID, time.Now(), &meta)
	require.NoError(t, err)
	assert.True(t, won)

	// A replayed return does not win twice.
	won, err = repo.MarkPaid(ctx, order.ID, time.Now(), &meta)
	require.NoError(t, err)
	assert.False(t, won)

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, loaded.Status)
	require.NotNil(t, loaded.PaidAt)
}

func TestRepositoryMarkPaymentFailed(t *testing.T) {
	ctx := context.Background()
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := seedOrder(t, db, enums.OrderStatusPendingPayment, time.Now())

	won, err := repo.MarkPaymentFailed(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.True(t, won)

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaymentFailed, loaded.Status)
}

func TestRepositoryExpiresOnlyStalePending(t *testing.T) {
	ctx := context.Background()
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	stale := seedOrder(t, db, enums.OrderStatusPendingPayment, time.Now().Add(-48*time.Hour))
	fresh := seedOrder(t, db, enums.OrderStatusPendingPayment, time.Now())
	completed := seedOrder(t, db, enums.OrderStatusCompleted, time.Now().Add(-48*time.Hour))

	cutoff := time.Now().Add(-24 * time.Hour)
	rows, err := repo.ListStalePending(ctx, cutoff, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, stale.ID, rows[0].ID)

	affected, err := repo.MarkExpired(ctx, []uuid.UUID{stale.ID, completed.ID}, time.Now())
	require.NoError(t, err)
	// The status guard skips the completed row.
	assert.Equal(t, int64(1), affected)

	loaded, err := repo.FindByID(ctx, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, loaded.Status)

	loaded, err = repo.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingPayment, loaded.Status)
}
