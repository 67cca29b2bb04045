package types

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// GuestInfo carries the contact fields required for one-click (guest)
// checkout when no authenticated customer is attached to the session.
type GuestInfo struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
}

// IsComplete reports whether every required guest field is present.
func (g GuestInfo) IsComplete() bool {
	return strings.TrimSpace(g.FullName) != "" &&
		strings.TrimSpace(g.Phone) != "" &&
		strings.TrimSpace(g.Email) != "" &&
		strings.TrimSpace(g.Address) != ""
}

// Value serializes guest info to JSON for a JSONB column.
func (g *GuestInfo) Value() (driver.Value, error) {
	if g == nil {
		return nil, nil
	}
	return json.Marshal(g)
}

// Scan decodes JSONB into the guest info struct.
func (g *GuestInfo) Scan(value interface{}) error {
	if value == nil {
		*g = GuestInfo{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, g)
}
