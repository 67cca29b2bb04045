package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/namprobe/nekovi-checkout/internal/products"
	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/pagination"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	productsTable := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price_vnd INTEGER NOT NULL,
  discount_percent REAL,
  image_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(productsTable).Error)
	require.NoError(t, db.Exec(cartItems).Error)
	return db
}

func newCartService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), products.NewRepository(db))
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, name string, priceVND int64, discountPct *float64) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:              uuid.New(),
		Name:            name,
		PriceVND:        priceVND,
		DiscountPercent: discountPct,
		IsActive:        true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedCartItem(t *testing.T, db *gorm.DB, customerID uuid.UUID, product *models.Product, quantity int, createdAt time.Time) *models.CartItem {
	t.Helper()
	item := &models.CartItem{
		ID:         uuid.New(),
		CustomerID: customerID,
		ProductID:  product.ID,
		Quantity:   quantity,
		CreatedAt:  createdAt,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestFetchPageReportsWholeCartTotals(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	customerID := uuid.New()

	base := time.Now().Add(-time.Hour)
	var wantSubtotal int64
	for i := 0; i < 8; i++ {
		product := seedProduct(t, db, fmt.Sprintf("figure-%d", i), 100_000, nil)
		seedCartItem(t, db, customerID, product, 2, base.Add(time.Duration(i)*time.Minute))
		wantSubtotal += 200_000
	}

	pageOne, err := svc.FetchPage(context.Background(), customerID, pagination.Params{Page: 1, PageSize: 6})
	require.NoError(t, err)
	assert.Len(t, pageOne.Items, 6)
	assert.Equal(t, wantSubtotal, pageOne.SubtotalVND)
	assert.Equal(t, int64(8), pageOne.TotalItems)
	assert.Equal(t, 2, pageOne.Pagination.TotalPages)

	// Changing the page must not change the authoritative totals.
	pageTwo, err := svc.FetchPage(context.Background(), customerID, pagination.Params{Page: 2, PageSize: 6})
	require.NoError(t, err)
	assert.Len(t, pageTwo.Items, 2)
	assert.Equal(t, wantSubtotal, pageTwo.SubtotalVND)
	assert.Equal(t, int64(8), pageTwo.TotalItems)
}

func TestFetchPageAppliesCatalogDiscount(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	customerID := uuid.New()

	pct := 25.0
	product := seedProduct(t, db, "wig", 200_000, &pct)
	seedCartItem(t, db, customerID, product, 1, time.Now())

	window, err := svc.FetchPage(context.Background(), customerID, pagination.Params{Page: 1, PageSize: 6})
	require.NoError(t, err)
	require.Len(t, window.Items, 1)
	assert.Equal(t, int64(150_000), window.Items[0].UnitPriceVND)
	assert.Equal(t, int64(150_000), window.SubtotalVND)
}

func TestAddItemUpsertsQuantity(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	customerID := uuid.New()
	product := seedProduct(t, db, "badge", 30_000, nil)

	require.NoError(t, svc.AddItem(context.Background(), customerID, product.ID, 1))
	require.NoError(t, svc.AddItem(context.Background(), customerID, product.ID, 2))

	var item models.CartItem
	require.NoError(t, db.Where("customer_id = ? AND product_id = ?", customerID, product.ID).First(&item).Error)
	assert.Equal(t, 3, item.Quantity)
}

func TestUpdateQuantityClampsToOne(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	customerID := uuid.New()
	product := seedProduct(t, db, "poster", 45_000, nil)
	item := seedCartItem(t, db, customerID, product, 4, time.Now())

	require.NoError(t, svc.UpdateQuantity(context.Background(), customerID, item.ID, 0))

	var reloaded models.CartItem
	require.NoError(t, db.First(&reloaded, "id = ?", item.ID).Error)
	assert.Equal(t, 1, reloaded.Quantity)
}

func TestDeleteItemScopedToCustomer(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	owner := uuid.New()
	product := seedProduct(t, db, "keychain", 20_000, nil)
	item := seedCartItem(t, db, owner, product, 1, time.Now())

	err := svc.DeleteItem(context.Background(), uuid.New(), item.ID)
	require.Error(t, err)

	require.NoError(t, svc.DeleteItem(context.Background(), owner, item.ID))

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("id = ?", item.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestClearRemovesOnlyCustomerRows(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	customerID := uuid.New()
	other := uuid.New()
	product := seedProduct(t, db, "tote", 60_000, nil)
	seedCartItem(t, db, customerID, product, 1, time.Now())
	seedCartItem(t, db, other, product, 1, time.Now())

	require.NoError(t, svc.Clear(context.Background(), customerID))

	var mine, theirs int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("customer_id = ?", customerID).Count(&mine).Error)
	require.NoError(t, db.Model(&models.CartItem{}).Where("customer_id = ?", other).Count(&theirs).Error)
	assert.Equal(t, int64(0), mine)
	assert.Equal(t, int64(1), theirs)
}
