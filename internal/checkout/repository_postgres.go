package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Shubrajit22/Zestware1/internal/cart"
	"github.com/Shubrajit22/Zestware1/internal/order"
	"github.com/Shubrajit22/Zestware1/internal/user"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateOrderAndClearCart runs the whole commit in one transaction: lock
// the cart row, check the version, insert the order, drop the lines, bump
// the version. A concurrent mutation or a replayed checkout fails the
// version check and rolls everything back.
func (s *PostgresStore) CreateOrderAndClearCart(ctx context.Context, id user.Identity, expectedVersion int64, o order.Order) (order.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return order.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var cartID, version int64
	err = tx.QueryRowContext(ctx,
		`SELECT cart_id, version FROM carts WHERE user_id = $1 FOR UPDATE`, id.UserID).
		Scan(&cartID, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order.Order{}, cart.ErrStaleCart
		}
		return order.Order{}, fmt.Errorf("lock cart: %w", err)
	}
	if version != expectedVersion {
		return order.Order{}, cart.ErrStaleCart
	}

	created, err := order.CreateTx(ctx, tx, o)
	if err != nil {
		return order.Order{}, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
		return order.Order{}, fmt.Errorf("clear cart lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE carts SET version = version + 1, updated_at = NOW() WHERE cart_id = $1`, cartID); err != nil {
		return order.Order{}, fmt.Errorf("bump cart version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return order.Order{}, fmt.Errorf("commit checkout: %w", err)
	}
	return created, nil
}
