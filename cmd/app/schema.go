package main

import "database/sql"

// bootstrap creates the schema on startup. Every statement is idempotent so
// restarting against an existing database is safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        user_id SERIAL PRIMARY KEY,
        name TEXT NOT NULL,
        email TEXT NOT NULL UNIQUE,
        mobile TEXT UNIQUE,
        password TEXT NOT NULL,
        image TEXT,
        is_admin BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,

	`CREATE TABLE IF NOT EXISTS categories (
        category_id SERIAL PRIMARY KEY,
        name TEXT NOT NULL UNIQUE,
        image_url TEXT NOT NULL DEFAULT '',
        description TEXT NOT NULL DEFAULT ''
    )`,

	`CREATE TABLE IF NOT EXISTS products (
        product_id SERIAL PRIMARY KEY,
        name TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        price INT NOT NULL,
        mrp_price INT NOT NULL DEFAULT 0,
        discount INT NOT NULL DEFAULT 0,
        image_url TEXT NOT NULL DEFAULT '',
        category_id INT NOT NULL REFERENCES categories(category_id),
        type TEXT NOT NULL DEFAULT '',
        state TEXT NOT NULL DEFAULT '',
        district TEXT NOT NULL DEFAULT '',
        institution TEXT NOT NULL DEFAULT '',
        color TEXT NOT NULL DEFAULT '',
        texture TEXT NOT NULL DEFAULT '',
        neckline TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,

	`CREATE TABLE IF NOT EXISTS product_sizes (
        size_id SERIAL PRIMARY KEY,
        product_id INT NOT NULL REFERENCES products(product_id) ON DELETE CASCADE,
        size TEXT NOT NULL,
        price INT NOT NULL,
        UNIQUE (product_id, size)
    )`,

	// A cart belongs to exactly one owner: a user or a guest token. The
	// partial unique indexes give each owner at most one cart and back the
	// upsert-free locate-then-lock path in the cart repository.
	`CREATE TABLE IF NOT EXISTS carts (
        cart_id BIGSERIAL PRIMARY KEY,
        user_id INT REFERENCES users(user_id),
        guest_token TEXT,
        version BIGINT NOT NULL DEFAULT 0,
        expires_at TIMESTAMPTZ,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        CHECK ((user_id IS NULL) <> (guest_token IS NULL))
    )`,
	`CREATE UNIQUE INDEX IF NOT EXISTS carts_user_idx ON carts(user_id) WHERE user_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS carts_guest_idx ON carts(guest_token) WHERE guest_token IS NOT NULL`,

	// size is NOT NULL DEFAULT '' so the (cart_id, product_id, size)
	// uniqueness holds for products without size variants too.
	`CREATE TABLE IF NOT EXISTS cart_lines (
        line_id BIGSERIAL PRIMARY KEY,
        cart_id BIGINT NOT NULL REFERENCES carts(cart_id) ON DELETE CASCADE,
        product_id INT NOT NULL,
        size TEXT NOT NULL DEFAULT '',
        quantity INT NOT NULL CHECK (quantity > 0),
        unit_price INT NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        UNIQUE (cart_id, product_id, size)
    )`,

	`CREATE TABLE IF NOT EXISTS orders (
        order_id BIGSERIAL PRIMARY KEY,
        reference TEXT NOT NULL UNIQUE,
        user_id INT NOT NULL REFERENCES users(user_id),
        status TEXT NOT NULL,
        payment_status TEXT NOT NULL,
        shipping_address TEXT NOT NULL,
        total_amount INT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,

	`CREATE TABLE IF NOT EXISTS order_items (
        item_id BIGSERIAL PRIMARY KEY,
        order_id BIGINT NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
        product_id INT NOT NULL,
        product_name TEXT NOT NULL,
        size TEXT NOT NULL DEFAULT '',
        quantity INT NOT NULL,
        unit_price INT NOT NULL
    )`,

	`CREATE TABLE IF NOT EXISTS addresses (
        address_id SERIAL PRIMARY KEY,
        user_id INT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
        label TEXT NOT NULL DEFAULT '',
        recipient TEXT NOT NULL,
        phone TEXT NOT NULL DEFAULT '',
        line1 TEXT NOT NULL,
        city TEXT NOT NULL DEFAULT '',
        state TEXT NOT NULL DEFAULT '',
        pincode TEXT NOT NULL,
        is_default BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,

	`CREATE TABLE IF NOT EXISTS reviews (
        review_id BIGSERIAL PRIMARY KEY,
        product_id INT NOT NULL REFERENCES products(product_id) ON DELETE CASCADE,
        user_id INT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
        rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
        comment TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
}

func bootstrap(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
