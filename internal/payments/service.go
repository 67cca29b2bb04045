package payments

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namprobe/nekovi-checkout/internal/cart"
	"github.com/namprobe/nekovi-checkout/internal/orders"
	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
	"github.com/namprobe/nekovi-checkout/pkg/logger"
	"github.com/namprobe/nekovi-checkout/pkg/outbox"
	"github.com/namprobe/nekovi-checkout/pkg/redis"
	"github.com/namprobe/nekovi-checkout/pkg/types"
	"github.com/namprobe/nekovi-checkout/pkg/vnpay"
)

// returnDedupTTL bounds how long a processed return blocks replays.
const returnDedupTTL = 24 * time.Hour

// ReturnOutcome reports how one gateway return was reconciled.
type ReturnOutcome struct {
	OrderID  uuid.UUID         `json:"order_id"`
	Status   enums.OrderStatus `json:"status"`
	Success  bool              `json:"success"`
	Replayed bool              `json:"replayed"`
}

type returnDecoder interface {
	DecodeReturn(query url.Values) (*vnpay.ReturnResult, error)
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service reconciles payment gateway returns against pending orders.
// Returns are verified, deduplicated and applied at most once; replays
// resolve to the order's already-settled state.
type Service struct {
	db      transactor
	repo    orders.Repository
	cart    cart.Repository
	decoder returnDecoder
	dedup   *redis.Client
	events  eventEmitter
	logg    *logger.Logger
	now     func() time.Time
}

// ServiceParams bundles the payment service dependencies.
type ServiceParams struct {
	DB      transactor
	Repo    orders.Repository
	Cart    cart.Repository
	Decoder returnDecoder
	Dedup   *redis.Client
	Events  eventEmitter
	Logger  *logger.Logger
}

// NewService validates dependencies and builds the payment service.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, errors.New("payment service: db is required")
	}
	if params.Repo == nil {
		return nil, errors.New("payment service: order repository is required")
	}
	if params.Cart == nil {
		return nil, errors.New("payment service: cart repository is required")
	}
	if params.Decoder == nil {
		return nil, errors.New("payment service: return decoder is required")
	}
	if params.Dedup == nil {
		return nil, errors.New("payment service: redis client is required")
	}
	if params.Events == nil {
		return nil, errors.New("payment service: event emitter is required")
	}
	if params.Logger == nil {
		return nil, errors.New("payment service: logger is required")
	}
	return &Service{
		db:      params.DB,
		repo:    params.Repo,
		cart:    params.Cart,
		decoder: params.Decoder,
		dedup:   params.Dedup,
		events:  params.Events,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

// HandleReturn verifies the signed return, then settles the order exactly
// once. A tampered signature never reaches the database.
func (s *Service) HandleReturn(ctx context.Context, query url.Values) (*ReturnOutcome, error) {
	result, err := s.decoder.DecodeReturn(query)
	if err != nil {
		return nil, err
	}
	orderID, err := uuid.Parse(result.OrderRef)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway return carries no valid order reference")
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	dedupKey := s.dedup.IdempotencyKey("payment_return", result.OrderRef)
	fresh, err := s.dedup.SetNX(ctx, dedupKey, "1", returnDedupTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deduplicating gateway return")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		s.releaseDedup(ctx, dedupKey)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order for return")
	}
	if !fresh || order.Status != enums.OrderStatusPendingPayment {
		s.logg.Info(ctx, "replayed gateway return resolved to settled state")
		return &ReturnOutcome{
			OrderID:  order.ID,
			Status:   order.Status,
			Success:  order.Status == enums.OrderStatusCompleted,
			Replayed: true,
		}, nil
	}

	success := result.Success && result.AmountVND == order.TotalVND
	if result.Success && !success {
		s.logg.Warn(ctx, "gateway return amount does not match order total")
	}

	meta := types.JSONMap(result.Meta)
	outcome := &ReturnOutcome{OrderID: order.ID, Success: success}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if !success {
			if _, err := s.repo.WithTx(tx).MarkPaymentFailed(ctx, order.ID, &meta); err != nil {
				return err
			}
			outcome.Status = enums.OrderStatusPaymentFailed
			return nil
		}
		won, err := s.repo.WithTx(tx).MarkPaid(ctx, order.ID, s.now().UTC(), &meta)
		if err != nil {
			return err
		}
		if !won {
			outcome.Status = order.Status
			outcome.Replayed = true
			return nil
		}
		outcome.Status = enums.OrderStatusCompleted
		if order.Origin == enums.OrderOriginCart && order.CustomerID != nil {
			if err := s.cart.WithTx(tx).Clear(ctx, *order.CustomerID); err != nil {
				return err
			}
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: map[string]any{
				"order_id":      order.ID.String(),
				"total_vnd":     order.TotalVND,
				"response_code": result.ResponseCode,
			},
		})
	})
	if err != nil {
		s.releaseDedup(ctx, dedupKey)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settling gateway return")
	}

	if success {
		s.logg.Info(ctx, "payment return settled, order completed")
	} else {
		s.logg.Warn(ctx, "payment return settled, order failed")
	}
	return outcome, nil
}

// releaseDedup frees the return claim after a failed settlement so the
// gateway's retry can settle instead of resolving as a replay.
func (s *Service) releaseDedup(ctx context.Context, key string) {
	if err := s.dedup.Del(ctx, key); err != nil {
		s.logg.Warn(ctx, "releasing gateway return claim failed")
	}
}

// Order exposes the settled order for the return landing page.
func (s *Service) Order(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}
