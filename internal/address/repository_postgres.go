package address

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const addressColumns = `address_id, user_id, label, recipient, phone, line1, city, state, pincode, is_default, created_at, updated_at`

func scanAddress(row interface{ Scan(...any) error }) (Address, error) {
	var a Address
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Recipient, &a.Phone,
		&a.Line1, &a.City, &a.State, &a.Pincode, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *PostgresRepository) List(ctx context.Context, userID int) ([]Address, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY address_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	out := make([]Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, userID, addressID int) (Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 AND address_id = $2`, userID, addressID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Address{}, ErrNotFound
		}
		return Address{}, fmt.Errorf("load address: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a Address) (Address, error) {
	created, err := scanAddress(r.db.QueryRowContext(ctx,
		`INSERT INTO addresses (user_id, label, recipient, phone, line1, city, state, pincode, is_default, created_at, updated_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
         RETURNING `+addressColumns,
		a.UserID, a.Label, a.Recipient, a.Phone, a.Line1, a.City, a.State, a.Pincode, a.IsDefault))
	if err != nil {
		return Address{}, fmt.Errorf("insert address: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, a Address) (Address, error) {
	updated, err := scanAddress(r.db.QueryRowContext(ctx,
		`UPDATE addresses
         SET label=$3, recipient=$4, phone=$5, line1=$6, city=$7, state=$8, pincode=$9, is_default=$10, updated_at=NOW()
         WHERE user_id=$1 AND address_id=$2
         RETURNING `+addressColumns,
		a.UserID, a.ID, a.Label, a.Recipient, a.Phone, a.Line1, a.City, a.State, a.Pincode, a.IsDefault))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Address{}, ErrNotFound
		}
		return Address{}, fmt.Errorf("update address: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, addressID int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM addresses WHERE user_id = $1 AND address_id = $2`, userID, addressID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ClearDefault(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID)
	return err
}
