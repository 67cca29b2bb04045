package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/namprobe/nekovi-checkout/internal/cart"
	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
	"github.com/namprobe/nekovi-checkout/pkg/pagination"
	"github.com/namprobe/nekovi-checkout/pkg/types"
)

// Draft is the order-in-progress rendered for a session. Cart drafts show a
// page window but always report whole-cart totals; buy-now drafts hold the
// single product.
type Draft struct {
	Origin      enums.OrderOrigin  `json:"origin"`
	Items       []types.LineItem   `json:"items"`
	SubtotalVND int64              `json:"subtotal_vnd"`
	TotalItems  int64              `json:"total_items"`
	Window      *pagination.Window `json:"window,omitempty"`
}

type cartWindow interface {
	FetchPage(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*cart.Window, error)
}

type buyNowLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// DraftBuilder materializes a Draft from session state.
type DraftBuilder struct {
	cart     cartWindow
	products buyNowLoader
}

// NewDraftBuilder wires the draft builder.
func NewDraftBuilder(cartSvc cartWindow, products buyNowLoader) (*DraftBuilder, error) {
	if cartSvc == nil {
		return nil, errors.New("draft builder: cart service is required")
	}
	if products == nil {
		return nil, errors.New("draft builder: product repository is required")
	}
	return &DraftBuilder{cart: cartSvc, products: products}, nil
}

// Build renders the draft for the session's origin.
func (b *DraftBuilder) Build(ctx context.Context, session *Session) (*Draft, error) {
	switch session.Origin {
	case enums.OrderOriginBuyNow:
		return b.buildBuyNow(ctx, session)
	case enums.OrderOriginCart:
		return b.buildCart(ctx, session)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown order origin %q", session.Origin))
	}
}

func (b *DraftBuilder) buildCart(ctx context.Context, session *Session) (*Draft, error) {
	if session.CustomerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart checkout requires an authenticated customer")
	}
	window, err := b.cart.FetchPage(ctx, *session.CustomerID, pagination.Params{
		Page:     session.Page,
		PageSize: session.PageSize,
	})
	if err != nil {
		return nil, err
	}
	return &Draft{
		Origin:      enums.OrderOriginCart,
		Items:       window.Items,
		SubtotalVND: window.SubtotalVND,
		TotalItems:  window.TotalItems,
		Window:      &window.Pagination,
	}, nil
}

func (b *DraftBuilder) buildBuyNow(ctx context.Context, session *Session) (*Draft, error) {
	if session.ProductID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buy-now checkout requires a product")
	}
	product, err := b.products.FindByID(ctx, *session.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	quantity := session.Quantity
	if quantity < 1 {
		quantity = 1
	}
	item := types.LineItem{
		SourceID:     product.ID,
		ProductID:    product.ID,
		Name:         product.Name,
		UnitPriceVND: product.EffectivePriceVND(),
		Quantity:     quantity,
		ImageURL:     product.ImageURL,
	}
	return &Draft{
		Origin:      enums.OrderOriginBuyNow,
		Items:       []types.LineItem{item},
		SubtotalVND: item.LineTotal(),
		TotalItems:  int64(quantity),
	}, nil
}
