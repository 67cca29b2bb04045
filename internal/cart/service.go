package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namprobe/nekovi-checkout/pkg/db"
	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
	"github.com/namprobe/nekovi-checkout/pkg/pagination"
	"github.com/namprobe/nekovi-checkout/pkg/types"
)

// Window is one paginated view of the cart. Subtotal and item count cover
// the whole cart, not the visible page: the page is a window, and paging
// must never change the reported totals.
type Window struct {
	Items       []types.LineItem  `json:"items"`
	Pagination  pagination.Window `json:"pagination"`
	SubtotalVND int64             `json:"subtotal_vnd"`
	TotalItems  int64             `json:"total_items"`
}

// Service exposes cart reads and mutations for the storefront.
type Service interface {
	FetchPage(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*Window, error)
	AddItem(ctx context.Context, customerID, productID uuid.UUID, quantity int) error
	UpdateQuantity(ctx context.Context, customerID, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, customerID, itemID uuid.UUID) error
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     Repository
	products productLoader
}

// NewService builds the cart service.
func NewService(repo Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) FetchPage(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*Window, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	page, err := s.repo.ListPage(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart page")
	}

	// Totals come from the full cart, never from the visible page.
	all, err := s.repo.ListAll(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart totals")
	}

	var subtotal int64
	for _, row := range all {
		if row.Product == nil {
			continue
		}
		subtotal += row.Product.EffectivePriceVND() * int64(row.Quantity)
	}

	items := make([]types.LineItem, 0, len(page))
	for _, row := range page {
		if row.Product == nil {
			continue
		}
		items = append(items, types.LineItem{
			SourceID:     row.ID,
			ProductID:    row.ProductID,
			Name:         row.Product.Name,
			UnitPriceVND: row.Product.EffectivePriceVND(),
			Quantity:     row.Quantity,
			ImageURL:     row.Product.ImageURL,
		})
	}

	return &Window{
		Items:       items,
		Pagination:  pagination.NewWindow(params, int64(len(all))),
		SubtotalVND: subtotal,
		TotalItems:  int64(len(all)),
	}, nil
}

func (s *service) AddItem(ctx context.Context, customerID, productID uuid.UUID, quantity int) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity < 1 {
		quantity = 1
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	existing, err := s.repo.FindByProduct(ctx, customerID, productID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find cart item")
		}
		item := &models.CartItem{
			ID:         uuid.New(),
			CustomerID: customerID,
			ProductID:  productID,
			Quantity:   quantity,
		}
		if err := s.repo.Create(ctx, item); err != nil {
			// A concurrent add can win the ux_cart_items_customer_product
			// race; fold into the existing line instead of failing.
			if db.IsUniqueViolation(err, "ux_cart_items_customer_product") {
				winner, findErr := s.repo.FindByProduct(ctx, customerID, productID)
				if findErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "find cart item")
				}
				if err := s.repo.UpdateQuantity(ctx, winner.ID, winner.Quantity+quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart quantity")
				}
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart item")
		}
		return nil
	}

	if err := s.repo.UpdateQuantity(ctx, existing.ID, existing.Quantity+quantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart quantity")
	}
	return nil
}

func (s *service) UpdateQuantity(ctx context.Context, customerID, itemID uuid.UUID, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	if _, err := s.repo.FindItem(ctx, customerID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find cart item")
	}

	if err := s.repo.UpdateQuantity(ctx, itemID, quantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart quantity")
	}
	return nil
}

func (s *service) DeleteItem(ctx context.Context, customerID, itemID uuid.UUID) error {
	if _, err := s.repo.FindItem(ctx, customerID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find cart item")
	}

	if err := s.repo.Delete(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if err := s.repo.Clear(ctx, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}
