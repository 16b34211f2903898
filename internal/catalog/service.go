package catalog

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// ServiceInterface is what other packages (cart, checkout, order) depend on.
type ServiceInterface interface {
	GetProduct(ctx context.Context, id int) (Product, error)
	ResolvePrice(ctx context.Context, productID int, size string) (int, error)
	ListByIDs(ctx context.Context, ids []int) ([]Product, error)
}

const cacheSize = 512

// Service orchestrates catalog reads and admin writes. Product reads sit on
// the hot path of every cart view and checkout, so they go through a small
// LRU; concurrent misses for the same product are collapsed with
// singleflight.
type Service struct {
	repo  Repository
	cache *lru.Cache[int, Product]
	sfg   singleflight.Group
}

func NewService(repo Repository) *Service {
	cache, _ := lru.New[int, Product](cacheSize)
	return &Service{repo: repo, cache: cache}
}

func (s *Service) GetProduct(ctx context.Context, id int) (Product, error) {
	if p, ok := s.cache.Get(id); ok {
		return p, nil
	}

	v, err, _ := s.sfg.Do(fmt.Sprintf("product:%d", id), func() (interface{}, error) {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return Product{}, err
		}
		s.cache.Add(id, p)
		return p, nil
	})
	if err != nil {
		return Product{}, err
	}
	return v.(Product), nil
}

// ResolvePrice returns the current unit price for a product+size
// combination. ErrNotFound when the product is unknown, ErrVariantNotFound
// when the product requires a size the caller did not supply (or supplied
// wrongly).
func (s *Service) ResolvePrice(ctx context.Context, productID int, size string) (int, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.PriceFor(size)
}

func (s *Service) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	return s.repo.ListByIDs(ctx, ids)
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByCategory(ctx context.Context, categoryID int) ([]Product, error) {
	return s.repo.ListByCategory(ctx, categoryID)
}

func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.cache.Add(created.ID, created)
	return created, nil
}

func (s *Service) Update(ctx context.Context, p Product) (Product, error) {
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return Product{}, err
	}
	// drop instead of overwrite so the next read round-trips through the repo
	s.cache.Remove(p.ID)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Remove(id)
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, c Category) (Category, error) {
	return s.repo.CreateCategory(ctx, c)
}
