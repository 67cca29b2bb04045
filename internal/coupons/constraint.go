package coupons

import (
	"github.com/google/uuid"

	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	"github.com/namprobe/nekovi-checkout/pkg/enums"
)

// MaxSelectionSize is the hard cap on coupons applied to one checkout.
const MaxSelectionSize = 2

// Rejection reasons returned by Decide. They are stable identifiers the API
// layer maps to user-facing messages.
const (
	ReasonMutuallyExclusive = "mutually-exclusive-discount-family"
	ReasonSingleFreeship    = "single-freeship-slot"
	ReasonMaxCoupons        = "max-two-coupons"
)

// Action describes what applying a candidate to a selection would do.
type Action string

const (
	// ActionAdd appends the candidate to the selection.
	ActionAdd Action = "add"
	// ActionRemove toggles an already-selected coupon off.
	ActionRemove Action = "remove"
	// ActionReplace swaps out the same-family coupon for the candidate.
	ActionReplace Action = "replace"
	// ActionReject leaves the selection unchanged.
	ActionReject Action = "reject"
)

// Decision is the outcome of testing a candidate against a selection.
type Decision struct {
	Action Action
	// ReplacedID is set when Action is ActionReplace or ActionRemove.
	ReplacedID uuid.UUID
	// Reason is set when Action is ActionReject.
	Reason string
}

// Decide tests whether the candidate may join the selection. It is a pure
// function: the caller applies the returned action. Manually entered codes go
// through the same path as picked coupons.
func Decide(selection []models.Coupon, candidate models.Coupon) Decision {
	// Re-selecting a coupon toggles it off.
	for _, existing := range selection {
		if existing.ID == candidate.ID {
			return Decision{Action: ActionRemove, ReplacedID: existing.ID}
		}
	}

	// Percentage and Fixed are mutually exclusive families.
	if candidate.DiscountType.IsProductFamily() {
		for _, existing := range selection {
			if existing.DiscountType.IsProductFamily() && existing.DiscountType != candidate.DiscountType {
				return Decision{Action: ActionReject, Reason: ReasonMutuallyExclusive}
			}
		}
	}

	if candidate.DiscountType == enums.DiscountTypeFreeShipping {
		for _, existing := range selection {
			if existing.DiscountType == enums.DiscountTypeFreeShipping {
				return Decision{Action: ActionReject, Reason: ReasonSingleFreeship}
			}
		}
	}

	// Same product-family type: last selected wins.
	for _, existing := range selection {
		if existing.DiscountType == candidate.DiscountType {
			return Decision{Action: ActionReplace, ReplacedID: existing.ID}
		}
	}

	if len(selection) >= MaxSelectionSize {
		return Decision{Action: ActionReject, Reason: ReasonMaxCoupons}
	}

	return Decision{Action: ActionAdd}
}

// Apply runs Decide and returns the resulting selection. The input slice is
// not mutated.
func Apply(selection []models.Coupon, candidate models.Coupon) ([]models.Coupon, Decision) {
	decision := Decide(selection, candidate)

	switch decision.Action {
	case ActionRemove:
		next := make([]models.Coupon, 0, len(selection))
		for _, existing := range selection {
			if existing.ID != decision.ReplacedID {
				next = append(next, existing)
			}
		}
		return next, decision

	case ActionReplace:
		next := make([]models.Coupon, 0, len(selection))
		for _, existing := range selection {
			if existing.ID != decision.ReplacedID {
				next = append(next, existing)
			}
		}
		next = append(next, candidate)
		return next, decision

	case ActionAdd:
		next := make([]models.Coupon, 0, len(selection)+1)
		next = append(next, selection...)
		next = append(next, candidate)
		return next, decision

	default:
		return selection, decision
	}
}
