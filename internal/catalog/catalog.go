package catalog

import "errors"

var (
	ErrNotFound = errors.New("product not found")
	// ErrVariantNotFound covers both an unknown size and a missing size on
	// a product that requires one.
	ErrVariantNotFound  = errors.New("size variant not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// SizeVariant is a (size, price) pair attached to a product. When a product
// has variants, a cart line must reference one of them and the variant price
// wins over the base price.
type SizeVariant struct {
	Size  string `json:"size"`
	Price int    `json:"price"`
}

// Product maps to the `products` table. Prices are whole rupees.
// JSON tags follow the camelCase convention used across the API.
type Product struct {
	ID          int           `json:"productId"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Price       int           `json:"price"`
	MrpPrice    int           `json:"mrpPrice,omitempty"`
	Discount    int           `json:"discount,omitempty"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	CategoryID  int           `json:"categoryId"`
	Type        string        `json:"type,omitempty"`
	State       string        `json:"state,omitempty"`
	District    string        `json:"district,omitempty"`
	Institution string        `json:"institution,omitempty"`
	Color       string        `json:"color,omitempty"`
	Texture     string        `json:"texture,omitempty"`
	Neckline    string        `json:"neckline,omitempty"`
	SizeOptions []SizeVariant `json:"sizeOptions"`
	CreatedAt   string        `json:"createdAt,omitempty"`
	UpdatedAt   string        `json:"updatedAt,omitempty"`
}

// PriceFor resolves the unit price for the given size. Products without
// variants ignore the size argument; products with variants require a
// matching one.
func (p Product) PriceFor(size string) (int, error) {
	if len(p.SizeOptions) == 0 {
		return p.Price, nil
	}
	for _, opt := range p.SizeOptions {
		if opt.Size == size {
			return opt.Price, nil
		}
	}
	return 0, ErrVariantNotFound
}

// Category maps to the `categories` table (original ProductCategory).
type Category struct {
	ID          int    `json:"categoryId"`
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Description string `json:"description,omitempty"`
}
