package cart

import (
	"context"
	"sync"
	"time"

	"github.com/Shubrajit22/Zestware1/internal/user"
)

// Repository persists carts. All mutations are funneled through Update and
// Merge so the version counter and the (productID, size) uniqueness
// invariant are enforced at a single point, inside one transaction.
type Repository interface {
	// Get returns the cart for the identity, ErrCartNotFound when absent.
	Get(ctx context.Context, id user.Identity) (Cart, error)
	// Update loads the identity's cart (creating an empty one when absent),
	// checks expectedVersion (AnyVersion skips the check, a missing cart
	// fails the check for anything but a fresh version 0), applies mutate, writes
	// the result back and bumps the version. Guest carts have their expiry
	// extended by ttl on every mutation.
	Update(ctx context.Context, id user.Identity, expectedVersion int64, ttl time.Duration, mutate func(*Cart) error) (Cart, error)
	// Merge atomically folds the guest cart into the user's cart using
	// combine and deletes the guest cart. A missing guest cart is a no-op,
	// which makes the operation idempotent under retry.
	Merge(ctx context.Context, guestToken string, userID int, combine func(src Cart, dst *Cart)) (Cart, error)
	// Delete drops a cart and its lines. Missing cart is a no-op.
	Delete(ctx context.Context, id user.Identity) error
	// DeleteExpired removes guest carts whose TTL passed, returning how
	// many were collected.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// InMemoryRepository is used for tests and local scenarios. A single mutex
// stands in for the row locks the Postgres implementation takes.
type InMemoryRepository struct {
	mu       sync.Mutex
	carts    map[string]*Cart
	nextCart int64
	nextLine int64
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{carts: make(map[string]*Cart), nextCart: 1, nextLine: 1}
}

func (r *InMemoryRepository) Get(ctx context.Context, id user.Identity) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[id.Key()]
	if !ok {
		return Cart{}, ErrCartNotFound
	}
	return cloneCart(*c), nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id user.Identity, expectedVersion int64, ttl time.Duration, mutate func(*Cart) error) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[id.Key()]
	if !ok {
		if expectedVersion != AnyVersion && expectedVersion != 0 {
			return Cart{}, ErrStaleCart
		}
		c = &Cart{ID: r.nextCart, Identity: id}
		r.nextCart++
		r.carts[id.Key()] = c
	}
	if expectedVersion != AnyVersion && c.Version != expectedVersion {
		return Cart{}, ErrStaleCart
	}

	work := cloneCart(*c)
	if err := mutate(&work); err != nil {
		return Cart{}, err
	}
	r.assignLineIDs(&work)

	work.Version = c.Version + 1
	if id.IsGuest() && ttl > 0 {
		exp := time.Now().Add(ttl)
		work.ExpiresAt = &exp
	}
	*c = cloneCart(work)
	return work, nil
}

func (r *InMemoryRepository) Merge(ctx context.Context, guestToken string, userID int, combine func(src Cart, dst *Cart)) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	guestKey := user.GuestIdentity(guestToken).Key()
	ownerID := user.UserIdentity(userID)

	src, ok := r.carts[guestKey]
	if !ok {
		// already merged (or never existed): report the user cart as-is
		if dst, ok := r.carts[ownerID.Key()]; ok {
			return cloneCart(*dst), nil
		}
		return Cart{Identity: ownerID}, nil
	}

	dst, ok := r.carts[ownerID.Key()]
	if !ok {
		dst = &Cart{ID: r.nextCart, Identity: ownerID}
		r.nextCart++
		r.carts[ownerID.Key()] = dst
	}

	work := cloneCart(*dst)
	combine(cloneCart(*src), &work)
	r.assignLineIDs(&work)
	work.Version = dst.Version + 1
	work.ExpiresAt = nil
	*dst = cloneCart(work)
	delete(r.carts, guestKey)
	return work, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id user.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, id.Key())
	return nil
}

func (r *InMemoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key, c := range r.carts {
		if c.Identity.IsGuest() && c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
			delete(r.carts, key)
			n++
		}
	}
	return n, nil
}

func (r *InMemoryRepository) assignLineIDs(c *Cart) {
	for i := range c.Lines {
		if c.Lines[i].ID == 0 {
			c.Lines[i].ID = r.nextLine
			r.nextLine++
		}
	}
}

func cloneCart(c Cart) Cart {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	c.Lines = lines
	if c.ExpiresAt != nil {
		exp := *c.ExpiresAt
		c.ExpiresAt = &exp
	}
	return c
}
