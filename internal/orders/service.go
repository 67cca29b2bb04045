package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namprobe/nekovi-checkout/internal/cart"
	"github.com/namprobe/nekovi-checkout/internal/coupons"
	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
	"github.com/namprobe/nekovi-checkout/pkg/logger"
	"github.com/namprobe/nekovi-checkout/pkg/outbox"
	"github.com/namprobe/nekovi-checkout/pkg/types"
	"github.com/namprobe/nekovi-checkout/pkg/vnpay"
)

// AppliedCoupon snapshots one qualified coupon at submit time.
type AppliedCoupon struct {
	CouponID     uuid.UUID
	DiscountType enums.DiscountType
	AmountVND    int64
}

// PlaceOrderInput carries everything the submission machine resolved for
// one order. Amounts are already computed; the service persists and hands
// off, it does not re-derive discounts.
type PlaceOrderInput struct {
	CustomerID          *uuid.UUID
	Origin              enums.OrderOrigin
	Items               []types.LineItem
	SubtotalVND         int64
	ProductDiscountVND  int64
	ShippingFeeVND      int64
	ShippingDiscountVND int64
	ShippingQuote       *types.ShippingQuote
	PaymentMethod       enums.PaymentMethod
	GuestInfo           *types.GuestInfo
	Coupons             []AppliedCoupon
	ClientIP            string
}

// PlacedOrder is the submission outcome handed back to checkout.
type PlacedOrder struct {
	OrderID    uuid.UUID
	Status     enums.OrderStatus
	TotalVND   int64
	PaymentURL *string
}

// Service places orders transactionally.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlacedOrder, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gatewayURLBuilder interface {
	BuildPaymentURL(ctx context.Context, req vnpay.PaymentRequest) (string, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	db      transactor
	repo    Repository
	coupons coupons.Repository
	cart    cart.Repository
	gateway gatewayURLBuilder
	events  eventEmitter
	logg    *logger.Logger
	now     func() time.Time
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	DB      transactor
	Repo    Repository
	Coupons coupons.Repository
	Cart    cart.Repository
	Gateway gatewayURLBuilder
	Events  eventEmitter
	Logger  *logger.Logger
}

// NewService validates dependencies and builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, errors.New("order service: db is required")
	}
	if params.Repo == nil {
		return nil, errors.New("order service: repository is required")
	}
	if params.Coupons == nil {
		return nil, errors.New("order service: coupon repository is required")
	}
	if params.Cart == nil {
		return nil, errors.New("order service: cart repository is required")
	}
	if params.Gateway == nil {
		return nil, errors.New("order service: payment gateway is required")
	}
	if params.Events == nil {
		return nil, errors.New("order service: event emitter is required")
	}
	if params.Logger == nil {
		return nil, errors.New("order service: logger is required")
	}
	return &service{
		db:      params.DB,
		repo:    params.Repo,
		coupons: params.Coupons,
		cart:    params.Cart,
		gateway: params.Gateway,
		events:  params.Events,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

// PlaceOrder persists the order with its item and coupon snapshots, marks
// selected coupons used, clears the cart for completed cart orders and
// stages the placement event, all in one transaction. For gateway payments
// the redirect URL is built before anything is written: a gateway handoff
// failure leaves no order behind.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlacedOrder, error) {
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if !input.Origin.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order origin is required")
	}

	totalVND := payableTotal(input)
	orderID := uuid.New()

	status := enums.OrderStatusCompleted
	var paymentURL *string
	if input.PaymentMethod.RequiresGateway() {
		status = enums.OrderStatusPendingPayment
		url, err := s.gateway.BuildPaymentURL(ctx, vnpay.PaymentRequest{
			OrderRef:  orderID.String(),
			AmountVND: totalVND,
			ClientIP:  input.ClientIP,
			Meta: map[string]any{
				"origin":       input.Origin.String(),
				"order_id":     orderID.String(),
				"total_vnd":    totalVND,
				"coupon_count": len(input.Coupons),
			},
		})
		if err != nil {
			return nil, err
		}
		paymentURL = &url
	}

	order := &models.Order{
		ID:                  orderID,
		CustomerID:          input.CustomerID,
		Origin:              input.Origin,
		Status:              status,
		SubtotalVND:         input.SubtotalVND,
		ProductDiscountVND:  input.ProductDiscountVND,
		ShippingFeeVND:      input.ShippingFeeVND,
		ShippingDiscountVND: input.ShippingDiscountVND,
		TotalVND:            totalVND,
		PaymentMethod:       input.PaymentMethod,
		PaymentURL:          paymentURL,
		ShippingQuote:       input.ShippingQuote,
		GuestInfo:           input.GuestInfo,
		Items:               orderItems(orderID, input.Items),
		CouponIDs:           couponUsages(orderID, input.Coupons),
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		if len(input.Coupons) > 0 {
			couponIDs := make([]uuid.UUID, 0, len(input.Coupons))
			for _, applied := range input.Coupons {
				couponIDs = append(couponIDs, applied.CouponID)
			}
			if input.CustomerID != nil {
				if err := s.coupons.WithTx(tx).MarkUsed(ctx, *input.CustomerID, couponIDs, s.now().UTC()); err != nil {
					return err
				}
			}
			if err := s.coupons.WithTx(tx).DecrementSlots(ctx, couponIDs); err != nil {
				return err
			}
		}
		if order.Status == enums.OrderStatusCompleted && order.Origin == enums.OrderOriginCart && input.CustomerID != nil {
			if err := s.cart.WithTx(tx).Clear(ctx, *input.CustomerID); err != nil {
				return err
			}
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: map[string]any{
				"order_id":       order.ID.String(),
				"origin":         order.Origin.String(),
				"payment_method": order.PaymentMethod.String(),
				"status":         order.Status.String(),
				"total_vnd":      order.TotalVND,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "placing order")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order placed")
	return &PlacedOrder{
		OrderID:    order.ID,
		Status:     order.Status,
		TotalVND:   order.TotalVND,
		PaymentURL: paymentURL,
	}, nil
}

// Get loads one order with its item snapshot.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func payableTotal(input PlaceOrderInput) int64 {
	products := input.SubtotalVND - input.ProductDiscountVND
	if products < 0 {
		products = 0
	}
	shipping := input.ShippingFeeVND - input.ShippingDiscountVND
	if shipping < 0 {
		shipping = 0
	}
	return products + shipping
}

func orderItems(orderID uuid.UUID, items []types.LineItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.OrderItem{
			ID:           uuid.New(),
			OrderID:      orderID,
			ProductID:    item.ProductID,
			Name:         item.Name,
			UnitPriceVND: item.UnitPriceVND,
			Quantity:     item.Quantity,
			ImageURL:     item.ImageURL,
		})
	}
	return out
}

func couponUsages(orderID uuid.UUID, applied []AppliedCoupon) []models.CouponUsage {
	out := make([]models.CouponUsage, 0, len(applied))
	for _, usage := range applied {
		out = append(out, models.CouponUsage{
			ID:           uuid.New(),
			OrderID:      orderID,
			CouponID:     usage.CouponID,
			DiscountType: usage.DiscountType,
			AmountVND:    usage.AmountVND,
		})
	}
	return out
}
