package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Shubrajit22/Zestware1/internal/order"
)

var (
	// ErrEmptyCart means there was nothing purchasable in the cart, either
	// because it had no lines or because validation dropped them all.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrGuestCheckout rejects checkout for guest identities. Guests must
	// sign in first; their cart merges into the account on login.
	ErrGuestCheckout = errors.New("checkout requires a signed-in user")
	ErrNoAddress     = errors.New("shipping address required")
)

// Stage labels checkout progress for logs.
type Stage string

const (
	StageInitiated    Stage = "INITIATED"
	StageValidated    Stage = "VALIDATED"
	StageOrderCreated Stage = "ORDER_CREATED"
	StageCompleted    Stage = "COMPLETED"
	StageFailed       Stage = "FAILED"
)

const (
	ReasonProductUnavailable = "product_unavailable"
	ReasonSizeUnavailable    = "size_unavailable"
	ReasonPriceChanged       = "price_changed"
)

// Warning reports a cart line that validation dropped or repriced. Dropped
// lines never block checkout as long as something purchasable remains.
type Warning struct {
	LineID    int64  `json:"lineId"`
	ProductID int    `json:"productId"`
	Size      string `json:"size,omitempty"`
	Reason    string `json:"reason"`
	OldPrice  int    `json:"oldPrice,omitempty"`
	NewPrice  int    `json:"newPrice,omitempty"`
}

type Result struct {
	Order    order.Order `json:"order"`
	Warnings []Warning   `json:"warnings,omitempty"`
}

// newReference mints a human-readable order reference.
func newReference() string {
	return fmt.Sprintf("ZW-%s", strings.ToUpper(uuid.NewString()[:8]))
}
