package catalog

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

const productColumns = `product_id, name, description, price, mrp_price, discount, image_url,
        category_id, type, state, district, institution, color, texture, neckline,
        created_at::text, updated_at::text`

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE product_id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	if err := r.attachSizes(ctx, []*Product{&p}); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+`
        FROM products
        WHERE product_id = ANY($1::int[])
        ORDER BY array_position($1::int[], product_id)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list products by ids: %w", err)
	}
	return r.collect(ctx, rows)
}

func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return r.collect(ctx, rows)
}

func (r *PostgresRepository) ListByCategory(ctx context.Context, categoryID int) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+`
        FROM products WHERE category_id = $1 ORDER BY product_id`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	return r.collect(ctx, rows)
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Product{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `INSERT INTO products
        (name, description, price, mrp_price, discount, image_url, category_id,
         type, state, district, institution, color, texture, neckline, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,NOW(),NOW())
        RETURNING product_id`,
		p.Name, p.Description, p.Price, p.MrpPrice, p.Discount, p.ImageURL, p.CategoryID,
		p.Type, p.State, p.District, p.Institution, p.Color, p.Texture, p.Neckline).Scan(&p.ID)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	if err := replaceSizesTx(ctx, tx, p.ID, p.SizeOptions); err != nil {
		return Product{}, err
	}
	if err := tx.Commit(); err != nil {
		return Product{}, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p Product) (Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Product{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE products SET
        name=$1, description=$2, price=$3, mrp_price=$4, discount=$5, image_url=$6,
        category_id=$7, type=$8, state=$9, district=$10, institution=$11, color=$12,
        texture=$13, neckline=$14, updated_at=NOW()
        WHERE product_id=$15`,
		p.Name, p.Description, p.Price, p.MrpPrice, p.Discount, p.ImageURL,
		p.CategoryID, p.Type, p.State, p.District, p.Institution, p.Color,
		p.Texture, p.Neckline, p.ID)
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Product{}, ErrNotFound
	}
	if err := replaceSizesTx(ctx, tx, p.ID, p.SizeOptions); err != nil {
		return Product{}, err
	}
	if err := tx.Commit(); err != nil {
		return Product{}, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE product_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category_id, name, image_url, description FROM categories ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ImageURL, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, c Category) (Category, error) {
	err := r.db.QueryRowContext(ctx, `INSERT INTO categories (name, image_url, description)
        VALUES ($1,$2,$3) RETURNING category_id`, c.Name, c.ImageURL, c.Description).Scan(&c.ID)
	if err != nil {
		return Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.MrpPrice, &p.Discount,
		&p.ImageURL, &p.CategoryID, &p.Type, &p.State, &p.District, &p.Institution,
		&p.Color, &p.Texture, &p.Neckline, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PostgresRepository) collect(ctx context.Context, rows *sql.Rows) ([]Product, error) {
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*Product, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := r.attachSizes(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

// attachSizes loads the size variants for the given products in one query.
func (r *PostgresRepository) attachSizes(ctx context.Context, products []*Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int, 0, len(products))
	byID := make(map[int]*Product, len(products))
	for _, p := range products {
		p.SizeOptions = []SizeVariant{}
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	rows, err := r.db.QueryContext(ctx, `SELECT product_id, size, price
        FROM product_sizes WHERE product_id = ANY($1::int[]) ORDER BY size_id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load size variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pid int
		var v SizeVariant
		if err := rows.Scan(&pid, &v.Size, &v.Price); err != nil {
			return err
		}
		if p, ok := byID[pid]; ok {
			p.SizeOptions = append(p.SizeOptions, v)
		}
	}
	return rows.Err()
}

func replaceSizesTx(ctx context.Context, tx *sql.Tx, productID int, sizes []SizeVariant) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_sizes WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("clear size variants: %w", err)
	}
	for _, v := range sizes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO product_sizes (product_id, size, price) VALUES ($1,$2,$3)`,
			productID, v.Size, v.Price); err != nil {
			return fmt.Errorf("insert size variant: %w", err)
		}
	}
	return nil
}
