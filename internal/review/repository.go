package review

import (
	"context"
	"sync"
	"time"
)

type Repository interface {
	// ListByProduct returns the product's reviews, newest first.
	ListByProduct(ctx context.Context, productID int) ([]Review, error)
	Create(ctx context.Context, rv Review) (Review, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu      sync.RWMutex
	reviews []Review
	nextID  int64
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1}
}

func (r *InMemoryRepository) ListByProduct(ctx context.Context, productID int) ([]Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Review, 0)
	for i := len(r.reviews) - 1; i >= 0; i-- {
		if r.reviews[i].ProductID == productID {
			out = append(out, r.reviews[i])
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Create(ctx context.Context, rv Review) (Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv.ID = r.nextID
	r.nextID++
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = time.Now()
	}
	r.reviews = append(r.reviews, rv)
	return rv, nil
}
