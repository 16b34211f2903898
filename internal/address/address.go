package address

import (
	"strings"
	"time"
)

// Address is a saved shipping address. Formatted() is what gets frozen
// into an order; the structured fields exist for the address book UI.
type Address struct {
	ID        int       `json:"addressId"`
	UserID    int       `json:"userId"`
	Label     string    `json:"label,omitempty"`
	Recipient string    `json:"recipient"`
	Phone     string    `json:"phone"`
	Line1     string    `json:"line1"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Formatted renders the address as a single shipping line.
func (a Address) Formatted() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Recipient, a.Line1, a.City, a.State, a.Pincode, a.Phone} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
