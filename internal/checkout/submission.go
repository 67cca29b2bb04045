package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/namprobe/nekovi-checkout/internal/coupons"
	"github.com/namprobe/nekovi-checkout/internal/orders"
	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
	"github.com/namprobe/nekovi-checkout/pkg/logger"
	"github.com/namprobe/nekovi-checkout/pkg/metrics"
	"github.com/namprobe/nekovi-checkout/pkg/types"
)

// submitLockTTL bounds how long a crashed submit can block the session.
const submitLockTTL = 30 * time.Second

type orderPlacer interface {
	PlaceOrder(ctx context.Context, input orders.PlaceOrderInput) (*orders.PlacedOrder, error)
}

type couponLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Coupon, error)
}

// SubmissionResult reports where one submit attempt landed.
type SubmissionResult struct {
	State      enums.SubmissionState   `json:"state"`
	OrderID    uuid.UUID               `json:"order_id,omitempty"`
	TotalVND   int64                   `json:"total_vnd"`
	PaymentURL *string                 `json:"payment_url,omitempty"`
	Outcomes   []coupons.CouponOutcome `json:"coupon_outcomes,omitempty"`
}

// Machine runs the submit flow: validate, place exactly once, then either
// redirect to the gateway or complete in place. Every failure returns the
// session to idle; resubmitting is always an explicit buyer action.
type Machine struct {
	store    *Store
	drafts   *DraftBuilder
	coupons  couponLoader
	orders   orderPlacer
	validate *validator.Validate
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewMachine wires the submission machine.
func NewMachine(store *Store, drafts *DraftBuilder, couponRepo couponLoader, placer orderPlacer, m *metrics.CheckoutMetrics, logg *logger.Logger) (*Machine, error) {
	if store == nil {
		return nil, errors.New("submission machine: session store is required")
	}
	if drafts == nil {
		return nil, errors.New("submission machine: draft builder is required")
	}
	if couponRepo == nil {
		return nil, errors.New("submission machine: coupon repository is required")
	}
	if placer == nil {
		return nil, errors.New("submission machine: order service is required")
	}
	if logg == nil {
		return nil, errors.New("submission machine: logger is required")
	}
	return &Machine{
		store:    store,
		drafts:   drafts,
		coupons:  couponRepo,
		orders:   placer,
		validate: validator.New(),
		metrics:  m,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Submit runs one submission attempt for the session.
func (m *Machine) Submit(ctx context.Context, key, clientIP string) (*SubmissionResult, error) {
	session, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	switch session.SubmissionState {
	case enums.SubmissionStateRedirecting, enums.SubmissionStateCompleted:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout session already submitted")
	case enums.SubmissionStateValidating, enums.SubmissionStateSubmitting:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "submission already in progress")
	}

	locked, err := m.store.AcquireSubmitLock(ctx, key, submitLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "submission already in progress")
	}

	result, err := m.run(ctx, session, clientIP)
	// The lock only serializes concurrent attempts. The submission state is
	// the durable guard, so the lock is released on every outcome.
	if relErr := m.store.ReleaseSubmitLock(ctx, key); relErr != nil {
		m.logg.Error(ctx, "releasing submit lock", relErr)
	}
	if err != nil {
		m.failBack(ctx, key)
		m.metrics.IncSubmission("failed")
		return nil, err
	}
	return result, nil
}

func (m *Machine) run(ctx context.Context, session *Session, clientIP string) (*SubmissionResult, error) {
	session.SubmissionState = enums.SubmissionStateValidating
	if err := m.store.Save(ctx, session); err != nil {
		return nil, err
	}

	// Validation gate. The order service is never reached when it fails.
	if !session.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select a payment method before submitting")
	}
	if session.IsGuest() {
		if err := m.validateGuest(session.GuestInfo); err != nil {
			return nil, err
		}
	}

	draft, err := m.drafts.Build(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(draft.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot submit an empty order")
	}
	if session.Destination != nil && !session.ShippingState.AtLeast(enums.ShippingStateFeeResolved) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping fee has not been resolved yet")
	}

	selection, err := m.loadSelection(ctx, session)
	if err != nil {
		return nil, err
	}
	shippingFee := session.ShippingFeeVND()
	resolution := coupons.Resolve(draft.SubtotalVND, shippingFee, selection)
	for _, outcome := range resolution.Outcomes {
		if !outcome.Qualifies {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("coupon %s requires a minimum order of %d VND", outcome.Code, outcome.MinOrderAmountVND)).
				WithDetails(resolution.Outcomes)
		}
	}

	session.SubmissionState = enums.SubmissionStateSubmitting
	if err := m.store.Save(ctx, session); err != nil {
		return nil, err
	}

	placed, err := m.orders.PlaceOrder(ctx, orders.PlaceOrderInput{
		CustomerID:          session.CustomerID,
		Origin:              session.Origin,
		Items:               draft.Items,
		SubtotalVND:         draft.SubtotalVND,
		ProductDiscountVND:  resolution.ProductDiscountVND,
		ShippingFeeVND:      shippingFee,
		ShippingDiscountVND: resolution.ShippingDiscountVND,
		ShippingQuote:       session.Quote,
		PaymentMethod:       session.PaymentMethod,
		GuestInfo:           session.GuestInfo,
		Coupons:             appliedCoupons(resolution),
		ClientIP:            clientIP,
	})
	if err != nil {
		return nil, err
	}

	if placed.PaymentURL != nil {
		session.SubmissionState = enums.SubmissionStateRedirecting
		if err := m.store.Save(ctx, session); err != nil {
			return nil, err
		}
		m.metrics.IncSubmission("redirecting")
	} else {
		session.SubmissionState = enums.SubmissionStateCompleted
		// The cart was cleared inside the order transaction; the window
		// the buyer returns to starts over.
		session.Page = 1
		session.CouponIDs = nil
		if err := m.store.Save(ctx, session); err != nil {
			return nil, err
		}
		m.metrics.IncSubmission("completed")
	}

	return &SubmissionResult{
		State:      session.SubmissionState,
		OrderID:    placed.OrderID,
		TotalVND:   placed.TotalVND,
		PaymentURL: placed.PaymentURL,
		Outcomes:   resolution.Outcomes,
	}, nil
}

func (m *Machine) validateGuest(info *types.GuestInfo) error {
	if info == nil || !info.IsComplete() {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest checkout requires name, phone, email and address")
	}
	if err := m.validate.Var(info.Email, "required,email"); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest email is not a valid address")
	}
	return nil
}

func (m *Machine) loadSelection(ctx context.Context, session *Session) ([]models.Coupon, error) {
	if len(session.CouponIDs) == 0 {
		return nil, nil
	}
	selection, err := m.coupons.FindByIDs(ctx, session.CouponIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading selected coupons")
	}
	now := m.now()
	for _, coupon := range selection {
		if !coupon.IsLive(now) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("coupon %s is no longer available", coupon.Code))
		}
	}
	return selection, nil
}

// failBack returns the session to idle after a failed attempt. Best effort:
// the session may have expired mid-flight.
func (m *Machine) failBack(ctx context.Context, key string) {
	session, err := m.store.Get(ctx, key)
	if err != nil {
		return
	}
	session.SubmissionState = enums.SubmissionStateIdle
	if err := m.store.Save(ctx, session); err != nil {
		m.logg.Error(ctx, "resetting submission state", err)
	}
}

func appliedCoupons(resolution coupons.Resolution) []orders.AppliedCoupon {
	out := make([]orders.AppliedCoupon, 0, len(resolution.Outcomes))
	for _, outcome := range resolution.Outcomes {
		out = append(out, orders.AppliedCoupon{
			CouponID:     outcome.CouponID,
			DiscountType: outcome.DiscountType,
			AmountVND:    outcome.AmountVND,
		})
	}
	return out
}
