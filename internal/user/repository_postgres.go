package user

import (
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

const userColumns = `user_id, name, email, COALESCE(mobile, ''), password, COALESCE(image, ''), is_admin, created_at::text, updated_at::text`

func (r *PostgresRepository) GetByID(id int) (User, error) {
	return r.getBy(`user_id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(email string) (User, error) {
	return r.getBy(`email = $1`, email)
}

func (r *PostgresRepository) GetByMobile(mobile string) (User, error) {
	return r.getBy(`mobile = $1`, mobile)
}

func (r *PostgresRepository) getBy(where string, arg any) (User, error) {
	var u User
	err := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE `+where, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.Mobile, &u.Password, &u.Image, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Create(u User) (User, error) {
	err := r.db.QueryRow(`INSERT INTO users (name, email, mobile, password, image, is_admin, created_at, updated_at)
        VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,NOW(),NOW())
        RETURNING user_id, created_at::text, updated_at::text`,
		u.Name, u.Email, u.Mobile, u.Password, u.Image, u.IsAdmin).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Update(id int, u User) (User, error) {
	err := r.db.QueryRow(`UPDATE users
        SET name=$1, email=$2, mobile=NULLIF($3,''), password=$4, image=$5, updated_at=NOW()
        WHERE user_id=$6
        RETURNING `+userColumns,
		u.Name, u.Email, u.Mobile, u.Password, u.Image, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Mobile, &u.Password, &u.Image, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}
