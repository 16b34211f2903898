package review

import (
	"context"
	"strings"

	"github.com/Shubrajit22/Zestware1/internal/catalog"
	"github.com/Shubrajit22/Zestware1/internal/user"
)

type Service struct {
	repo    Repository
	catalog catalog.ServiceInterface
	users   user.ServiceInterface
}

func NewService(repo Repository, cat catalog.ServiceInterface, users user.ServiceInterface) *Service {
	return &Service{repo: repo, catalog: cat, users: users}
}

// ListByProduct returns a product's reviews decorated with the reviewer's
// name. An unknown product reads as catalog.ErrNotFound.
func (s *Service) ListByProduct(ctx context.Context, productID int) ([]Review, error) {
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.attachNames(reviews)
	return reviews, nil
}

func (s *Service) Create(ctx context.Context, productID, userID, rating int, comment string) (Review, error) {
	if rating < 1 || rating > 5 {
		return Review{}, ErrInvalidRating
	}
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return Review{}, err
	}
	rv, err := s.repo.Create(ctx, Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
	})
	if err != nil {
		return Review{}, err
	}
	out := []Review{rv}
	s.attachNames(out)
	return out[0], nil
}

// attachNames is best effort: a deleted reviewer renders without a name.
func (s *Service) attachNames(reviews []Review) {
	names := make(map[int]string)
	for i := range reviews {
		name, ok := names[reviews[i].UserID]
		if !ok {
			if u, err := s.users.GetByID(reviews[i].UserID); err == nil {
				name = u.Name
			}
			names[reviews[i].UserID] = name
		}
		reviews[i].UserName = name
	}
}
