package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
	"github.com/namprobe/nekovi-checkout/pkg/logger"
	"github.com/namprobe/nekovi-checkout/pkg/metrics"
	"github.com/namprobe/nekovi-checkout/pkg/shipping"
	"github.com/namprobe/nekovi-checkout/pkg/types"
)

type addressLoader interface {
	Get(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error)
}

type feeQuoter interface {
	QuoteFee(ctx context.Context, req shipping.FeeRequest) (*types.ShippingQuote, error)
	QuoteLeadTime(ctx context.Context, req shipping.FeeRequest) (int, error)
}

// Coordinator drives the address -> method -> fee -> lead-time chain.
// Selecting a new address or method bumps the session sequence and rolls the
// state back; any lookup that completes under an older sequence is discarded.
type Coordinator struct {
	store     *Store
	addresses addressLoader
	quoter    feeQuoter
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
}

// NewCoordinator wires the shipping coordinator.
func NewCoordinator(store *Store, addresses addressLoader, quoter feeQuoter, m *metrics.CheckoutMetrics, logg *logger.Logger) (*Coordinator, error) {
	if store == nil {
		return nil, errors.New("coordinator: session store is required")
	}
	if addresses == nil {
		return nil, errors.New("coordinator: address service is required")
	}
	if quoter == nil {
		return nil, errors.New("coordinator: shipping quoter is required")
	}
	if logg == nil {
		return nil, errors.New("coordinator: logger is required")
	}
	return &Coordinator{store: store, addresses: addresses, quoter: quoter, metrics: m, logg: logg}, nil
}

// SelectAddress points the session at one of the customer's saved addresses.
// Any previously resolved fee or lead time is invalidated.
func (c *Coordinator) SelectAddress(ctx context.Context, key string, customerID, addressID uuid.UUID) (*Session, error) {
	session, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	address, err := c.addresses.Get(ctx, customerID, addressID)
	if err != nil {
		return nil, err
	}
	session.Destination = &Destination{
		AddressID: &address.ID,
		Province:  address.Province,
		District:  address.District,
		Ward:      address.Ward,
	}
	session.Seq++
	session.ShippingState = enums.ShippingStateAddressSelected
	session.Quote = nil
	session.FeeLookupFailed = false
	if err := c.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SelectMethod chooses the shipping method. Requires an address first.
func (c *Coordinator) SelectMethod(ctx context.Context, key, methodID string) (*Session, error) {
	session, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !session.ShippingState.AtLeast(enums.ShippingStateAddressSelected) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select a shipping address before choosing a method")
	}
	if methodID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping method is required")
	}
	session.ShippingMethodID = methodID
	session.Seq++
	session.ShippingState = enums.ShippingStateMethodSelected
	session.Quote = nil
	session.FeeLookupFailed = false
	if err := c.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ResolveQuote runs the fee lookup and, when the fee lands, the lead-time
// lookup. Each result is applied only if the session sequence still matches
// the one captured before the call; otherwise the response is dropped and
// counted. A failed fee lookup keeps the previous quote, it never defaults
// the fee to zero.
func (c *Coordinator) ResolveQuote(ctx context.Context, key string) (*Session, error) {
	session, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !session.ShippingState.AtLeast(enums.ShippingStateMethodSelected) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select an address and shipping method before quoting")
	}
	token := session.Seq
	req := shipping.FeeRequest{
		ShippingMethodID: session.ShippingMethodID,
		ToProvince:       session.Destination.Province,
		ToDistrict:       session.Destination.District,
		ToWard:           session.Destination.Ward,
	}

	start := time.Now()
	quote, feeErr := c.quoter.QuoteFee(ctx, req)
	c.metrics.ObserveQuoteDuration("fee", time.Since(start))

	latest, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if latest.Seq != token {
		// A newer selection owns the session now; the caller gets its
		// current state and the superseded response is dropped.
		c.metrics.IncStaleDiscard("fee")
		c.logg.Info(ctx, "discarded stale shipping fee response")
		return latest, nil
	}
	if feeErr != nil {
		latest.FeeLookupFailed = true
		if err := c.store.Save(ctx, latest); err != nil {
			return nil, err
		}
		return latest, feeErr
	}
	quote.ShippingMethodID = latest.ShippingMethodID
	latest.Quote = quote
	latest.ShippingState = enums.ShippingStateFeeResolved
	latest.FeeLookupFailed = false
	if err := c.store.Save(ctx, latest); err != nil {
		return nil, err
	}

	start = time.Now()
	days, leadErr := c.quoter.QuoteLeadTime(ctx, req)
	c.metrics.ObserveQuoteDuration("leadtime", time.Since(start))

	fresh, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if fresh.Seq != token {
		c.metrics.IncStaleDiscard("leadtime")
		c.logg.Info(ctx, "discarded stale lead-time response")
		return fresh, nil
	}
	if leadErr != nil {
		// The fee stands on its own; lead time is a nice-to-have.
		c.logg.Warn(ctx, "lead-time lookup failed, keeping fee-resolved state")
		return fresh, nil
	}
	fresh.Quote.LeadTimeDays = days
	fresh.ShippingState = enums.ShippingStateLeadTimeResolved
	if err := c.store.Save(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}
