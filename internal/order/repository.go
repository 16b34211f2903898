package order

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository persists orders. Create is all-or-nothing: an order is never
// visible without its items.
type Repository interface {
	Create(ctx context.Context, o Order) (Order, error)
	GetByID(ctx context.Context, id int64) (Order, error)
	ListByUser(ctx context.Context, userID int) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status Status) error
	UpdatePaymentStatus(ctx context.Context, orderID int64, status PaymentStatus) error
	// ClaimPayment atomically moves a PENDING or FAILED order to
	// PROCESSING. Exactly one of several concurrent callers wins; the
	// rest get ErrPaymentInFlight.
	ClaimPayment(ctx context.Context, orderID int64) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu       sync.RWMutex
	orders   map[int64]Order
	nextID   int64
	nextItem int64
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{orders: make(map[int64]Order), nextID: 1, nextItem: 1}
}

func (r *InMemoryRepository) Create(ctx context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(o)
}

// createLocked is shared with the checkout store, which composes this
// repository under its own lock discipline.
func (r *InMemoryRepository) createLocked(o Order) (Order, error) {
	o.ID = r.nextID
	r.nextID++
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	items := make([]Item, len(o.Items))
	copy(items, o.Items)
	for i := range items {
		items[i].ID = r.nextItem
		items[i].OrderID = o.ID
		r.nextItem++
	}
	o.Items = items
	r.orders[o.ID] = o
	return o, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *InMemoryRepository) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, orderID int64, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	r.orders[orderID] = o
	return nil
}

func (r *InMemoryRepository) UpdatePaymentStatus(ctx context.Context, orderID int64, status PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.PaymentStatus = status
	r.orders[orderID] = o
	return nil
}

func (r *InMemoryRepository) ClaimPayment(ctx context.Context, orderID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	if o.PaymentStatus != PaymentPending && o.PaymentStatus != PaymentFailed {
		return ErrPaymentInFlight
	}
	o.PaymentStatus = PaymentProcessing
	r.orders[orderID] = o
	return nil
}

func cloneOrder(o Order) Order {
	items := make([]Item, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}
