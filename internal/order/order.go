package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrIllegalTransition rejects a status change the state machine does
	// not allow (e.g. cancelling a shipped order).
	ErrIllegalTransition = errors.New("illegal order status transition")
	// ErrPaymentInFlight means another caller already claimed the order
	// for charging (or it is paid).
	ErrPaymentInFlight = errors.New("payment already in flight")
)

type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPlaced, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransition encodes the legal status moves. Terminal states have none.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPlaced:
		return to == StatusPaid || to == StatusCancelled
	case StatusPaid:
		return to == StatusShipped || to == StatusCancelled
	case StatusShipped:
		return to == StatusDelivered
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	// PaymentProcessing marks an order claimed for charging, so a second
	// concurrent payment attempt cannot reach the gateway.
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentPaid       PaymentStatus = "PAID"
	PaymentFailed     PaymentStatus = "FAILED"
)

// Item is a frozen order line. Quantity and unit price are snapshots taken
// at checkout; later catalog edits never touch them. ProductID is kept for
// display lookups only.
type Item struct {
	ID          int64  `json:"itemId"`
	OrderID     int64  `json:"-"`
	ProductID   int    `json:"productId"`
	ProductName string `json:"productName"`
	Size        string `json:"size,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int    `json:"unitPrice"`
	// ImageURL is filled from the live catalog when listing orders; it is
	// presentation data, not part of the snapshot.
	ImageURL string `json:"imageUrl,omitempty"`
}

func (i Item) Subtotal() int { return i.UnitPrice * i.Quantity }

// Order is immutable once created except for its two status fields.
type Order struct {
	ID              int64         `json:"orderId"`
	Reference       string        `json:"reference"`
	UserID          int           `json:"userId"`
	Status          Status        `json:"status"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	ShippingAddress string        `json:"shippingAddress"`
	TotalAmount     int           `json:"totalAmount"`
	Items           []Item        `json:"items"`
	CreatedAt       time.Time     `json:"createdAt"`
}
