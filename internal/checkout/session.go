package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/namprobe/nekovi-checkout/pkg/enums"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
	"github.com/namprobe/nekovi-checkout/pkg/redis"
	"github.com/namprobe/nekovi-checkout/pkg/types"
)

// Destination is the shipping target snapshot captured when an address is
// selected. Fee and lead-time lookups read from it instead of re-fetching
// the address row.
type Destination struct {
	AddressID *uuid.UUID `json:"address_id,omitempty"`
	Province  string     `json:"province"`
	District  string     `json:"district"`
	Ward      string     `json:"ward"`
}

// Session is the whole checkout draft: origin, coupon selection, shipping
// chain and payment choice. It lives in Redis under a TTL and is the single
// source of truth between requests.
type Session struct {
	Key        string            `json:"key"`
	CustomerID *uuid.UUID        `json:"customer_id,omitempty"`
	Origin     enums.OrderOrigin `json:"origin"`

	// Buy-now drafts carry exactly one product.
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	Quantity  int        `json:"quantity,omitempty"`

	// Cart drafts render a window into the persisted cart.
	Page     int `json:"page"`
	PageSize int `json:"page_size"`

	CouponIDs []uuid.UUID `json:"coupon_ids,omitempty"`

	ShippingState    enums.ShippingState  `json:"shipping_state"`
	Destination      *Destination         `json:"destination,omitempty"`
	ShippingMethodID string               `json:"shipping_method_id,omitempty"`
	Quote            *types.ShippingQuote `json:"quote,omitempty"`
	FeeLookupFailed  bool                 `json:"fee_lookup_failed,omitempty"`
	// Seq increments on every address or method change. In-flight lookups
	// carry the value they started with; a mismatch on completion means the
	// response belongs to a superseded selection and must be discarded.
	Seq uint64 `json:"seq"`

	PaymentMethod enums.PaymentMethod `json:"payment_method,omitempty"`
	GuestInfo     *types.GuestInfo    `json:"guest_info,omitempty"`

	SubmissionState enums.SubmissionState `json:"submission_state"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsGuest reports whether no authenticated customer is attached.
func (s *Session) IsGuest() bool {
	return s.CustomerID == nil
}

// SelectedCouponIDs returns a copy of the current selection.
func (s *Session) SelectedCouponIDs() []uuid.UUID {
	out := make([]uuid.UUID, len(s.CouponIDs))
	copy(out, s.CouponIDs)
	return out
}

// ShippingFeeVND returns the payable fee from the last resolved quote, or
// zero when no quote has landed yet.
func (s *Session) ShippingFeeVND() int64 {
	if s.Quote == nil {
		return 0
	}
	return s.Quote.PayableFee()
}

// Store persists checkout sessions in Redis as JSON blobs.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewStore builds a session store with the configured TTL.
func NewStore(client *redis.Client, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, errors.New("checkout store: redis client is required")
	}
	if ttl <= 0 {
		return nil, errors.New("checkout store: session ttl must be positive")
	}
	return &Store{client: client, ttl: ttl, now: time.Now}, nil
}

// Create opens a fresh session for the given origin.
func (s *Store) Create(ctx context.Context, origin enums.OrderOrigin, customerID *uuid.UUID) (*Session, error) {
	if !origin.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order origin %q", origin))
	}
	now := s.now().UTC()
	session := &Session{
		Key:             uuid.NewString(),
		CustomerID:      customerID,
		Origin:          origin,
		Page:            1,
		ShippingState:   enums.ShippingStateNoAddress,
		SubmissionState: enums.SubmissionStateIdle,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get loads a session by key.
func (s *Store) Get(ctx context.Context, key string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.client.SessionKey(key))
	if errors.Is(err, redis.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found or expired")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading checkout session")
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding checkout session")
	}
	return &session, nil
}

// Save writes the session back and refreshes its TTL.
func (s *Store) Save(ctx context.Context, session *Session) error {
	if session == nil || session.Key == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "cannot save empty checkout session")
	}
	session.UpdatedAt = s.now().UTC()
	raw, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding checkout session")
	}
	if err := s.client.Set(ctx, s.client.SessionKey(session.Key), raw, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving checkout session")
	}
	return nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.client.SessionKey(key)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting checkout session")
	}
	return nil
}

// AcquireSubmitLock claims the one-shot submit slot for a session. It
// returns false when another submit already holds it.
func (s *Store) AcquireSubmitLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.client.IdempotencyKey("submit", key), "1", ttl)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring submit lock")
	}
	return ok, nil
}

// ReleaseSubmitLock frees the submit slot so the buyer can explicitly retry
// after a failed submission.
func (s *Store) ReleaseSubmitLock(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.client.IdempotencyKey("submit", key))
}
