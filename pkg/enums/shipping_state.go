package enums

// ShippingState tracks how far the address/method/fee/lead-time chain has
// resolved for the current checkout session. Selecting a new address rolls
// the state back to AddressSelected and invalidates downstream lookups.
type ShippingState string

const (
	ShippingStateNoAddress        ShippingState = "no_address"
	ShippingStateAddressSelected  ShippingState = "address_selected"
	ShippingStateMethodSelected   ShippingState = "method_selected"
	ShippingStateFeeResolved      ShippingState = "fee_resolved"
	ShippingStateLeadTimeResolved ShippingState = "lead_time_resolved"
)

// String implements fmt.Stringer.
func (s ShippingState) String() string {
	return string(s)
}

// AtLeast reports whether the state has reached the given milestone.
func (s ShippingState) AtLeast(other ShippingState) bool {
	return shippingStateRank(s) >= shippingStateRank(other)
}

func shippingStateRank(s ShippingState) int {
	switch s {
	case ShippingStateAddressSelected:
		return 1
	case ShippingStateMethodSelected:
		return 2
	case ShippingStateFeeResolved:
		return 3
	case ShippingStateLeadTimeResolved:
		return 4
	default:
		return 0
	}
}
