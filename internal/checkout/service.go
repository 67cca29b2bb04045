package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/namprobe/nekovi-checkout/internal/coupons"
	"github.com/namprobe/nekovi-checkout/pkg/config"
	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
	"github.com/namprobe/nekovi-checkout/pkg/logger"
	"github.com/namprobe/nekovi-checkout/pkg/types"
)

// Summary is the full checkout view: the draft, per-coupon outcomes and the
// payable total. It is recomputed from scratch on every read; nothing in it
// is cached.
type Summary struct {
	Session        *Session           `json:"session"`
	Draft          *Draft             `json:"draft"`
	Resolution     coupons.Resolution `json:"resolution"`
	ShippingFeeVND int64              `json:"shipping_fee_vnd"`
	TotalVND       int64              `json:"total_vnd"`
}

type couponSelector interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Coupon, error)
	FindCollected(ctx context.Context, customerID, couponID uuid.UUID) (*models.CustomerCoupon, error)
}

type codeResolver interface {
	ResolveCode(ctx context.Context, customerID uuid.UUID, code string) (*models.Coupon, error)
}

// Service is the checkout facade the API layer talks to.
type Service struct {
	store       *Store
	coordinator *Coordinator
	machine     *Machine
	drafts      *DraftBuilder
	selector    couponSelector
	codes       codeResolver
	cfg         config.CheckoutConfig
	logg        *logger.Logger
}

// ServiceParams bundles the checkout facade dependencies.
type ServiceParams struct {
	Store       *Store
	Coordinator *Coordinator
	Machine     *Machine
	Drafts      *DraftBuilder
	Selector    couponSelector
	Codes       codeResolver
	Config      config.CheckoutConfig
	Logger      *logger.Logger
}

// NewService validates dependencies and builds the facade.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, errors.New("checkout service: session store is required")
	}
	if params.Coordinator == nil {
		return nil, errors.New("checkout service: shipping coordinator is required")
	}
	if params.Machine == nil {
		return nil, errors.New("checkout service: submission machine is required")
	}
	if params.Drafts == nil {
		return nil, errors.New("checkout service: draft builder is required")
	}
	if params.Selector == nil {
		return nil, errors.New("checkout service: coupon repository is required")
	}
	if params.Codes == nil {
		return nil, errors.New("checkout service: coupon service is required")
	}
	if params.Logger == nil {
		return nil, errors.New("checkout service: logger is required")
	}
	return &Service{
		store:       params.Store,
		coordinator: params.Coordinator,
		machine:     params.Machine,
		drafts:      params.Drafts,
		selector:    params.Selector,
		codes:       params.Codes,
		cfg:         params.Config,
		logg:        params.Logger,
	}, nil
}

// StartCartCheckout opens a session over the customer's persisted cart.
func (s *Service) StartCartCheckout(ctx context.Context, customerID uuid.UUID) (*Session, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart checkout requires an authenticated customer")
	}
	session, err := s.store.Create(ctx, enums.OrderOriginCart, &customerID)
	if err != nil {
		return nil, err
	}
	session.PageSize = s.cfg.SummaryPageSize
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithSessionKey(ctx, session.Key), "cart checkout session opened")
	return session, nil
}

// StartBuyNow opens a single-product session. A nil customer means guest
// checkout; contact fields are collected before submit.
func (s *Service) StartBuyNow(ctx context.Context, customerID *uuid.UUID, productID uuid.UUID, quantity int) (*Session, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if quantity < 1 {
		quantity = 1
	}
	session, err := s.store.Create(ctx, enums.OrderOriginBuyNow, customerID)
	if err != nil {
		return nil, err
	}
	session.ProductID = &productID
	session.Quantity = quantity
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithSessionKey(ctx, session.Key), "buy-now checkout session opened")
	return session, nil
}

// SetPage moves the cart window. Totals in the summary do not change with
// the page.
func (s *Service) SetPage(ctx context.Context, key string, page int) (*Session, error) {
	session, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if session.Origin != enums.OrderOriginCart {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buy-now sessions have no pages")
	}
	if page < 1 {
		page = 1
	}
	session.Page = page
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ToggleCoupon applies one of the customer's collected coupons to the
// selection, or removes it when already selected.
func (s *Service) ToggleCoupon(ctx context.Context, key string, couponID uuid.UUID) (coupons.Decision, *Summary, error) {
	session, err := s.store.Get(ctx, key)
	if err != nil {
		return coupons.Decision{}, nil, err
	}
	if session.IsGuest() {
		return coupons.Decision{}, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "collected coupons require an authenticated customer")
	}
	if _, err := s.selector.FindCollected(ctx, *session.CustomerID, couponID); err != nil {
		return coupons.Decision{}, nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon is not in your wallet")
	}
	found, err := s.selector.FindByIDs(ctx, []uuid.UUID{couponID})
	if err != nil || len(found) == 0 {
		return coupons.Decision{}, nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return s.applyCandidate(ctx, session, found[0])
}

// ApplyCode runs a manually entered code through the same selection rules
// as a picked coupon.
func (s *Service) ApplyCode(ctx context.Context, key, code string) (coupons.Decision, *Summary, error) {
	session, err := s.store.Get(ctx, key)
	if err != nil {
		return coupons.Decision{}, nil, err
	}
	customerID := uuid.Nil
	if session.CustomerID != nil {
		customerID = *session.CustomerID
	}
	candidate, err := s.codes.ResolveCode(ctx, customerID, code)
	if err != nil {
		return coupons.Decision{}, nil, err
	}
	return s.applyCandidate(ctx, session, *candidate)
}

func (s *Service) applyCandidate(ctx context.Context, session *Session, candidate models.Coupon) (coupons.Decision, *Summary, error) {
	selection, err := s.loadSelection(ctx, session)
	if err != nil {
		return coupons.Decision{}, nil, err
	}
	next, decision := coupons.Apply(selection, candidate)
	if decision.Action == coupons.ActionReject {
		summary, err := s.Summary(ctx, session.Key)
		return decision, summary, err
	}
	ids := make([]uuid.UUID, 0, len(next))
	for _, coupon := range next {
		ids = append(ids, coupon.ID)
	}
	session.CouponIDs = ids
	if err := s.store.Save(ctx, session); err != nil {
		return decision, nil, err
	}
	summary, err := s.summarize(ctx, session, next)
	return decision, summary, err
}

// SetPaymentMethod records the buyer's payment choice.
func (s *Service) SetPaymentMethod(ctx context.Context, key string, method enums.PaymentMethod) (*Session, error) {
	session, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	session.PaymentMethod = method
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SetGuestInfo records contact details for a guest session.
func (s *Service) SetGuestInfo(ctx context.Context, key string, info types.GuestInfo) (*Session, error) {
	session, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !session.IsGuest() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session already has an authenticated customer")
	}
	session.GuestInfo = &info
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SelectAddress delegates to the shipping coordinator.
func (s *Service) SelectAddress(ctx context.Context, key string, customerID, addressID uuid.UUID) (*Session, error) {
	return s.coordinator.SelectAddress(ctx, key, customerID, addressID)
}

// SelectShippingMethod delegates to the shipping coordinator.
func (s *Service) SelectShippingMethod(ctx context.Context, key, methodID string) (*Session, error) {
	return s.coordinator.SelectMethod(ctx, key, methodID)
}

// ResolveShipping runs the fee and lead-time lookups for the session.
func (s *Service) ResolveShipping(ctx context.Context, key string) (*Session, error) {
	return s.coordinator.ResolveQuote(ctx, key)
}

// Submit runs one submission attempt.
func (s *Service) Submit(ctx context.Context, key, clientIP string) (*SubmissionResult, error) {
	return s.machine.Submit(ctx, key, clientIP)
}

// Summary recomputes the full checkout view for the session.
func (s *Service) Summary(ctx context.Context, key string) (*Summary, error) {
	session, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	selection, err := s.loadSelection(ctx, session)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, session, selection)
}

func (s *Service) summarize(ctx context.Context, session *Session, selection []models.Coupon) (*Summary, error) {
	draft, err := s.drafts.Build(ctx, session)
	if err != nil {
		return nil, err
	}
	fee := session.ShippingFeeVND()
	resolution := coupons.Resolve(draft.SubtotalVND, fee, selection)

	products := draft.SubtotalVND - resolution.ProductDiscountVND
	if products < 0 {
		products = 0
	}
	shipping := fee - resolution.ShippingDiscountVND
	if shipping < 0 {
		shipping = 0
	}
	return &Summary{
		Session:        session,
		Draft:          draft,
		Resolution:     resolution,
		ShippingFeeVND: fee,
		TotalVND:       products + shipping,
	}, nil
}

func (s *Service) loadSelection(ctx context.Context, session *Session) ([]models.Coupon, error) {
	if len(session.CouponIDs) == 0 {
		return nil, nil
	}
	selection, err := s.selector.FindByIDs(ctx, session.CouponIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading selected coupons")
	}
	return selection, nil
}
