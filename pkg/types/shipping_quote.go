package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ShippingQuote stores the fee/lead-time estimate resolved for an address
// and shipping method pair. It is derived state: always safe to discard and
// recompute when either input changes.
type ShippingQuote struct {
	ShippingMethodID string `json:"shipping_method_id"`
	FeeOriginalVND   int64  `json:"fee_original_vnd"`
	FeeDiscountVND   int64  `json:"fee_discount_vnd"`
	LeadTimeDays     int    `json:"lead_time_days,omitempty"`
}

// PayableFee returns the fee after the provider-side discount, floored at zero.
func (s ShippingQuote) PayableFee() int64 {
	fee := s.FeeOriginalVND - s.FeeDiscountVND
	if fee < 0 {
		return 0
	}
	return fee
}

// Value serializes the quote to JSON for a JSONB column.
func (s *ShippingQuote) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan decodes JSONB into the quote struct.
func (s *ShippingQuote) Scan(value interface{}) error {
	if value == nil {
		*s = ShippingQuote{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, s)
}

// JSONMap stores an arbitrary JSON object inside a JSONB column. Gateway
// metadata blocks are carried through it unchanged.
type JSONMap map[string]any

// Value serializes the map to JSON.
func (j *JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan decodes JSONB into the map.
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded JSONMap
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*j = decoded
	return nil
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported jsonb scan type %T", value)
	}
}
