package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/namprobe/nekovi-checkout/internal/orders"
	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
	"github.com/namprobe/nekovi-checkout/pkg/logger"
	"github.com/namprobe/nekovi-checkout/pkg/outbox"
)

const expireBatchSize = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OrderTTLJobParams configure the pending payment expiration job.
type OrderTTLJobParams struct {
	Logger *logger.Logger
	DB     txRunner
	Orders orders.Repository
	Outbox outboxEmitter
	// TTL is how long an order may sit in pending_payment before it expires.
	TTL time.Duration
}

// NewOrderTTLJob builds the cron job that expires stale pending-payment
// orders. An expired order stays expired even if the gateway return lands
// later; the return handler's status guard makes that a no-op.
func NewOrderTTLJob(params OrderTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("pending payment ttl must be positive")
	}
	return &orderTTLJob{
		logg:   params.Logger,
		db:     params.DB,
		orders: params.Orders,
		outbox: params.Outbox,
		ttl:    params.TTL,
		now:    time.Now,
	}, nil
}

type orderTTLJob struct {
	logg   *logger.Logger
	db     txRunner
	orders orders.Repository
	outbox outboxEmitter
	ttl    time.Duration
	now    func() time.Time
}

func (j *orderTTLJob) Name() string { return "order-ttl" }

func (j *orderTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.orders.ListStalePending(ctx, cutoff, expireBatchSize)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	var errs []error
	expired := 0
	for _, order := range stale {
		if err := j.expireOrder(ctx, order); err != nil {
			errs = append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
			continue
		}
		expired++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": expired})
	j.logg.Info(logCtx, "order expiration loop complete")
	return multierr.Combine(errs...)
}

func (j *orderTTLJob) expireOrder(ctx context.Context, order models.Order) error {
	now := j.now().UTC()
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := j.orders.WithTx(tx).MarkExpired(ctx, []uuid.UUID{order.ID}, now)
		if err != nil {
			return err
		}
		// The order settled between listing and expiring.
		if affected == 0 {
			return nil
		}
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderExpired,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			OccurredAt:    now,
			Data: OrderExpiredEvent{
				OrderID:       order.ID,
				PaymentMethod: order.PaymentMethod,
				TotalVND:      order.TotalVND,
				ExpiredAt:     now,
			},
		})
	})
}

// OrderExpiredEvent describes the payload when a pending order expires.
type OrderExpiredEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	TotalVND      int64               `json:"totalVnd"`
	ExpiredAt     time.Time           `json:"expiredAt"`
}
