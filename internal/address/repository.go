package address

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrNotFound = errors.New("address not found")

type Repository interface {
	List(ctx context.Context, userID int) ([]Address, error)
	Get(ctx context.Context, userID, addressID int) (Address, error)
	Create(ctx context.Context, a Address) (Address, error)
	Update(ctx context.Context, a Address) (Address, error)
	Delete(ctx context.Context, userID, addressID int) error
	// ClearDefault unsets the default flag on all of a user's addresses.
	// Create and Update call it before writing an address marked default.
	ClearDefault(ctx context.Context, userID int) error
}

// InMemoryRepository for tests.
type InMemoryRepository struct {
	mu     sync.RWMutex
	data   map[int]Address
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{data: make(map[int]Address), nextID: 1}
}

func (r *InMemoryRepository) List(ctx context.Context, userID int) ([]Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Address, 0)
	for _, a := range r.data {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, userID, addressID int) (Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.data[addressID]
	if !ok || a.UserID != userID {
		return Address{}, ErrNotFound
	}
	return a, nil
}

func (r *InMemoryRepository) Create(ctx context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.nextID
	r.nextID++
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.data[a.ID] = a
	return a, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[a.ID]
	if !ok || existing.UserID != a.UserID {
		return Address{}, ErrNotFound
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now()
	r.data[a.ID] = a
	return a, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, userID, addressID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[addressID]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	delete(r.data, addressID)
	return nil
}

func (r *InMemoryRepository) ClearDefault(ctx context.Context, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.data {
		if a.UserID == userID && a.IsDefault {
			a.IsDefault = false
			r.data[id] = a
		}
	}
	return nil
}
