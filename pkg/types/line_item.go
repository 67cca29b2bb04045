package types

import "github.com/google/uuid"

// LineItem is one normalized order line. Cart checkout and buy-now both
// produce this shape, so downstream discount and shipping logic never cares
// where a draft came from. Quantity changes produce a new value.
type LineItem struct {
	SourceID     uuid.UUID `json:"source_id"`
	ProductID    uuid.UUID `json:"product_id"`
	Name         string    `json:"name"`
	UnitPriceVND int64     `json:"unit_price_vnd"`
	Quantity     int       `json:"quantity"`
	ImageURL     *string   `json:"image_url,omitempty"`
}

// LineTotal returns unit price times quantity.
func (l LineItem) LineTotal() int64 {
	return l.UnitPriceVND * int64(l.Quantity)
}
