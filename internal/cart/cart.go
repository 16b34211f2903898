package cart

import (
	"errors"
	"time"

	"github.com/Shubrajit22/Zestware1/internal/user"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("size variant not found")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrStaleCart means the caller's expectedVersion lost a race against a
	// concurrent mutation. The client must refetch the cart and retry.
	ErrStaleCart = errors.New("cart version is stale")
)

// AnyVersion skips the optimistic-concurrency check on a mutation.
const AnyVersion int64 = -1

// Line is one (product, size, quantity) entry. (cart, productID, size) is
// unique; re-adding the same combination increments the quantity instead of
// duplicating the line.
type Line struct {
	ID        int64     `json:"lineId"`
	ProductID int       `json:"productId"`
	Size      string    `json:"size,omitempty"`
	Quantity  int       `json:"quantity"`
	UnitPrice int       `json:"unitPrice"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Cart is the server-authoritative cart for one identity. Version is a
// monotonic counter bumped by every mutation; it linearizes concurrent
// writers (the loser of a compare-and-swap gets ErrStaleCart).
type Cart struct {
	ID        int64         `json:"-"`
	Identity  user.Identity `json:"-"`
	Version   int64         `json:"version"`
	Lines     []Line        `json:"lines"`
	ExpiresAt *time.Time    `json:"-"`
}

// Total sums the cached line subtotals.
func (c Cart) Total() int {
	total := 0
	for _, ln := range c.Lines {
		total += ln.UnitPrice * ln.Quantity
	}
	return total
}

func (c *Cart) findLine(lineID int64) *Line {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return &c.Lines[i]
		}
	}
	return nil
}

func (c *Cart) findByKey(productID int, size string) *Line {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID && c.Lines[i].Size == size {
			return &c.Lines[i]
		}
	}
	return nil
}

func (c *Cart) removeLine(lineID int64) bool {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// LineView is a cart line annotated with the live catalog price. The cached
// price is never silently rewritten on view; the flags tell the client what
// changed.
type LineView struct {
	Line
	LivePrice    int  `json:"livePrice"`
	PriceChanged bool `json:"priceChanged"`
	// Unavailable marks a line whose product or size variant no longer
	// exists in the catalog. Checkout drops such lines with a warning.
	Unavailable bool `json:"unavailable,omitempty"`
}

// View is the read model returned by the view operation.
type View struct {
	Version   int64      `json:"version"`
	Lines     []LineView `json:"lines"`
	Total     int        `json:"total"`
	LiveTotal int        `json:"liveTotal"`
}
