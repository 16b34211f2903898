package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, o Order) (Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created, err := CreateTx(ctx, tx, o)
	if err != nil {
		return Order{}, err
	}
	if err := tx.Commit(); err != nil {
		return Order{}, fmt.Errorf("commit order: %w", err)
	}
	return created, nil
}

// CreateTx inserts an order and its items inside the caller's transaction.
// The checkout store uses it so the order write and the cart clear commit
// together.
func CreateTx(ctx context.Context, tx *sql.Tx, o Order) (Order, error) {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO orders (reference, user_id, status, payment_status, shipping_address, total_amount, created_at)
         VALUES ($1,$2,$3,$4,$5,$6,NOW())
         RETURNING order_id, created_at`,
		o.Reference, o.UserID, o.Status, o.PaymentStatus, o.ShippingAddress, o.TotalAmount).
		Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		err := tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, size, quantity, unit_price)
             VALUES ($1,$2,$3,$4,$5,$6) RETURNING item_id`,
			o.ID, it.ProductID, it.ProductName, it.Size, it.Quantity, it.UnitPrice).Scan(&it.ID)
		if err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}
	return o, nil
}

const orderColumns = `order_id, reference, user_id, status, payment_status, shipping_address, total_amount, created_at`

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, id).
		Scan(&o.ID, &o.Reference, &o.UserID, &o.Status, &o.PaymentStatus, &o.ShippingAddress, &o.TotalAmount, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("load order: %w", err)
	}
	if err := r.attachItems(ctx, map[int64]*Order{o.ID: &o}); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY order_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Reference, &o.UserID, &o.Status, &o.PaymentStatus,
			&o.ShippingAddress, &o.TotalAmount, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byID := make(map[int64]*Order, len(out))
	for i := range out {
		byID[out[i].ID] = &out[i]
	}
	if err := r.attachItems(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepository) attachItems(ctx context.Context, orders map[int64]*Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	for id, o := range orders {
		o.Items = []Item{}
		ids = append(ids, id)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id, order_id, product_id, product_name, size, quantity, unit_price
         FROM order_items WHERE order_id = ANY($1::bigint[]) ORDER BY item_id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Size, &it.Quantity, &it.UnitPrice); err != nil {
			return err
		}
		if o, ok := orders[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID int64, status Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE order_id = $2`, status, orderID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdatePaymentStatus(ctx context.Context, orderID int64, status PaymentStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET payment_status = $1 WHERE order_id = $2`, status, orderID)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ClaimPayment(ctx context.Context, orderID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_status = $1 WHERE order_id = $2 AND payment_status IN ($3, $4)`,
		PaymentProcessing, orderID, PaymentPending, PaymentFailed)
	if err != nil {
		return fmt.Errorf("claim payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// no claimable row: missing order or someone else holds the claim
	var current PaymentStatus
	err = r.db.QueryRowContext(ctx, `SELECT payment_status FROM orders WHERE order_id = $1`, orderID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("claim payment: %w", err)
	}
	return ErrPaymentInFlight
}
