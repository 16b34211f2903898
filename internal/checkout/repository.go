package checkout

import (
	"context"
	"errors"

	"github.com/Shubrajit22/Zestware1/internal/cart"
	"github.com/Shubrajit22/Zestware1/internal/order"
	"github.com/Shubrajit22/Zestware1/internal/user"
)

// Store commits a checkout. The order insert, the cart clear and the cart
// version bump must land together or not at all, so a retried checkout with
// the old version observes cart.ErrStaleCart instead of a second order.
type Store interface {
	CreateOrderAndClearCart(ctx context.Context, id user.Identity, expectedVersion int64, o order.Order) (order.Order, error)
}

// InMemoryStore composes the in-memory cart and order repositories. The
// cart repository's version check is the commit point; when the order write
// fails afterwards the cleared lines are restored so neither side is lost.
type InMemoryStore struct {
	carts  cart.Repository
	orders order.Repository
}

func NewInMemoryStore(carts cart.Repository, orders order.Repository) *InMemoryStore {
	return &InMemoryStore{carts: carts, orders: orders}
}

func (s *InMemoryStore) CreateOrderAndClearCart(ctx context.Context, id user.Identity, expectedVersion int64, o order.Order) (order.Order, error) {
	var saved []cart.Line
	cleared, err := s.carts.Update(ctx, id, expectedVersion, 0, func(c *cart.Cart) error {
		saved = c.Lines
		c.Lines = nil
		return nil
	})
	if err != nil {
		return order.Order{}, err
	}

	created, err := s.orders.Create(ctx, o)
	if err != nil {
		// no order was written, so put the lines back instead of losing them
		if _, restoreErr := s.carts.Update(ctx, id, cleared.Version, 0, func(c *cart.Cart) error {
			c.Lines = saved
			return nil
		}); restoreErr != nil {
			return order.Order{}, errors.Join(err, restoreErr)
		}
		return order.Order{}, err
	}
	return created, nil
}
