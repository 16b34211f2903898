package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/Shubrajit22/Zestware1/internal/user"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func identityWhere(id user.Identity) (string, any) {
	if id.IsGuest() {
		return "guest_token = $1", id.GuestToken
	}
	return "user_id = $1", id.UserID
}

func (r *PostgresRepository) Get(ctx context.Context, id user.Identity) (Cart, error) {
	where, arg := identityWhere(id)
	var c Cart
	c.Identity = id
	err := r.db.QueryRowContext(ctx,
		`SELECT cart_id, version, expires_at FROM carts WHERE `+where, arg).
		Scan(&c.ID, &c.Version, &c.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, ErrCartNotFound
		}
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}

	lines, err := loadLines(ctx, r.db, c.ID)
	if err != nil {
		return Cart{}, err
	}
	c.Lines = lines
	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id user.Identity, expectedVersion int64, ttl time.Duration, mutate func(*Cart) error) (Cart, error) {
	var out Cart
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		c, err := lockCart(ctx, tx, id, expectedVersion, true)
		if err != nil {
			return err
		}
		if expectedVersion != AnyVersion && c.Version != expectedVersion {
			return ErrStaleCart
		}

		if err := mutate(&c); err != nil {
			return err
		}
		if err := writeLines(ctx, tx, &c); err != nil {
			return err
		}

		// bump the version; guest activity extends the TTL
		var expires any
		if id.IsGuest() && ttl > 0 {
			exp := time.Now().Add(ttl)
			c.ExpiresAt = &exp
			expires = exp
		}
		err = tx.QueryRowContext(ctx,
			`UPDATE carts SET version = version + 1, updated_at = NOW(), expires_at = COALESCE($2, expires_at)
             WHERE cart_id = $1 RETURNING version`, c.ID, expires).Scan(&c.Version)
		if err != nil {
			return fmt.Errorf("bump cart version: %w", err)
		}
		out = c
		return nil
	})
	if err != nil {
		return Cart{}, err
	}
	return out, nil
}

func (r *PostgresRepository) Merge(ctx context.Context, guestToken string, userID int, combine func(src Cart, dst *Cart)) (Cart, error) {
	var out Cart
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		guest := user.GuestIdentity(guestToken)
		src, err := lockCart(ctx, tx, guest, AnyVersion, false)
		if errors.Is(err, ErrCartNotFound) {
			// nothing to merge; retried merges land here
			return nil
		}
		if err != nil {
			return err
		}

		dst, err := lockCart(ctx, tx, user.UserIdentity(userID), AnyVersion, true)
		if err != nil {
			return err
		}

		combine(src, &dst)
		if err := writeLines(ctx, tx, &dst); err != nil {
			return err
		}
		err = tx.QueryRowContext(ctx,
			`UPDATE carts SET version = version + 1, updated_at = NOW() WHERE cart_id = $1 RETURNING version`,
			dst.ID).Scan(&dst.Version)
		if err != nil {
			return fmt.Errorf("bump cart version: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE cart_id = $1`, src.ID); err != nil {
			return fmt.Errorf("delete guest cart: %w", err)
		}
		out = dst
		return nil
	})
	if err != nil {
		return Cart{}, err
	}
	if out.ID == 0 {
		// no-op merge: report the user cart as-is
		c, err := r.Get(ctx, user.UserIdentity(userID))
		if errors.Is(err, ErrCartNotFound) {
			return Cart{Identity: user.UserIdentity(userID)}, nil
		}
		return c, err
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id user.Identity) error {
	where, arg := identityWhere(id)
	if _, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE `+where, arg); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM carts WHERE guest_token IS NOT NULL AND expires_at IS NOT NULL AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired carts: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// lockCart loads the identity's cart under FOR UPDATE, optionally creating
// an empty one when absent. A cart missing while the caller expected a
// concrete version is a stale read on the caller's side.
func lockCart(ctx context.Context, tx *sql.Tx, id user.Identity, expectedVersion int64, create bool) (Cart, error) {
	where, arg := identityWhere(id)
	var c Cart
	c.Identity = id
	err := tx.QueryRowContext(ctx,
		`SELECT cart_id, version, expires_at FROM carts WHERE `+where+` FOR UPDATE`, arg).
		Scan(&c.ID, &c.Version, &c.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		if expectedVersion != AnyVersion && expectedVersion != 0 {
			return Cart{}, ErrStaleCart
		}
		if !create {
			return Cart{}, ErrCartNotFound
		}
		return createCart(ctx, tx, id)
	}
	if err != nil {
		return Cart{}, fmt.Errorf("lock cart: %w", err)
	}

	lines, err := loadLines(ctx, tx, c.ID)
	if err != nil {
		return Cart{}, err
	}
	c.Lines = lines
	return c, nil
}

func createCart(ctx context.Context, tx *sql.Tx, id user.Identity) (Cart, error) {
	var userID, guestToken any
	if id.IsGuest() {
		guestToken = id.GuestToken
	} else {
		userID = id.UserID
	}
	var c Cart
	c.Identity = id
	err := tx.QueryRowContext(ctx,
		`INSERT INTO carts (user_id, guest_token) VALUES ($1, $2) RETURNING cart_id, version`,
		userID, guestToken).Scan(&c.ID, &c.Version)
	if err != nil {
		return Cart{}, fmt.Errorf("create cart: %w", err)
	}
	return c, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadLines(ctx context.Context, q queryer, cartID int64) ([]Line, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT line_id, product_id, size, quantity, unit_price, updated_at
         FROM cart_lines WHERE cart_id = $1 ORDER BY line_id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart lines: %w", err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var ln Line
		if err := rows.Scan(&ln.ID, &ln.ProductID, &ln.Size, &ln.Quantity, &ln.UnitPrice, &ln.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, ln)
	}
	return lines, rows.Err()
}

// writeLines reconciles the mutated in-memory lines with the table: upsert
// every surviving line (keyed on cart, product, size so existing line ids
// are stable) and delete the rest.
func writeLines(ctx context.Context, tx *sql.Tx, c *Cart) error {
	keep := make([]int64, 0, len(c.Lines))
	for i := range c.Lines {
		ln := &c.Lines[i]
		err := tx.QueryRowContext(ctx,
			`INSERT INTO cart_lines (cart_id, product_id, size, quantity, unit_price, updated_at)
             VALUES ($1,$2,$3,$4,$5,NOW())
             ON CONFLICT (cart_id, product_id, size)
             DO UPDATE SET quantity = EXCLUDED.quantity, unit_price = EXCLUDED.unit_price, updated_at = NOW()
             RETURNING line_id`,
			c.ID, ln.ProductID, ln.Size, ln.Quantity, ln.UnitPrice).Scan(&ln.ID)
		if err != nil {
			return fmt.Errorf("write cart line: %w", err)
		}
		keep = append(keep, ln.ID)
	}

	var err error
	if len(keep) == 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, c.ID)
	} else {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM cart_lines WHERE cart_id = $1 AND line_id != ALL($2::bigint[])`,
			c.ID, pq.Array(keep))
	}
	if err != nil {
		return fmt.Errorf("prune cart lines: %w", err)
	}
	return nil
}

func (r *PostgresRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
