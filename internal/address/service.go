package address

import (
	"context"
	"errors"
)

var ErrInvalid = errors.New("recipient, line1 and pincode are required")

type ServiceInterface interface {
	GetAddress(ctx context.Context, userID, addressID int) (Address, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListAddresses(ctx context.Context, userID int) ([]Address, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) GetAddress(ctx context.Context, userID, addressID int) (Address, error) {
	return s.repo.Get(ctx, userID, addressID)
}

func (s *Service) AddAddress(ctx context.Context, a Address) (Address, error) {
	if a.Recipient == "" || a.Line1 == "" || a.Pincode == "" {
		return Address{}, ErrInvalid
	}
	if a.IsDefault {
		if err := s.repo.ClearDefault(ctx, a.UserID); err != nil {
			return Address{}, err
		}
	}
	return s.repo.Create(ctx, a)
}

func (s *Service) UpdateAddress(ctx context.Context, a Address) (Address, error) {
	if a.ID <= 0 {
		return Address{}, ErrNotFound
	}
	if a.Recipient == "" || a.Line1 == "" || a.Pincode == "" {
		return Address{}, ErrInvalid
	}
	if a.IsDefault {
		if err := s.repo.ClearDefault(ctx, a.UserID); err != nil {
			return Address{}, err
		}
	}
	return s.repo.Update(ctx, a)
}

func (s *Service) DeleteAddress(ctx context.Context, userID, addressID int) error {
	return s.repo.Delete(ctx, userID, addressID)
}
