package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shubrajit22/Zestware1/internal/catalog"
)

type ServiceInterface interface {
	GetForUser(ctx context.Context, userID int, orderID int64) (Order, error)
	ListByUser(ctx context.Context, userID int) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID int64, to Status) error
	ClaimPayment(ctx context.Context, orderID int64) error
	MarkPaymentResult(ctx context.Context, orderID int64, paid bool) error
}

type Service struct {
	repo    Repository
	catalog catalog.ServiceInterface
}

func NewService(repo Repository, catalog catalog.ServiceInterface) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// GetForUser loads an order only when the caller owns it. A foreign order
// reads as missing rather than forbidden.
func (s *Service) GetForUser(ctx context.Context, userID int, orderID int64) (Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, ErrNotFound
	}
	s.attachImages(ctx, []Order{o})
	return o, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.attachImages(ctx, orders)
	return orders, nil
}

// attachImages decorates items with the current catalog image. Products
// deleted since checkout simply render without one.
func (s *Service) attachImages(ctx context.Context, orders []Order) {
	seen := make(map[int]struct{})
	ids := make([]int, 0)
	for i := range orders {
		for _, it := range orders[i].Items {
			if _, ok := seen[it.ProductID]; !ok {
				seen[it.ProductID] = struct{}{}
				ids = append(ids, it.ProductID)
			}
		}
	}
	if len(ids) == 0 {
		return
	}
	products, err := s.catalog.ListByIDs(ctx, ids)
	if err != nil {
		return
	}
	images := make(map[int]string, len(products))
	for _, p := range products {
		images[p.ID] = p.ImageURL
	}
	for i := range orders {
		for j := range orders[i].Items {
			orders[i].Items[j].ImageURL = images[orders[i].Items[j].ProductID]
		}
	}
}

// UpdateStatus moves an order along the fulfilment state machine and
// rejects any move CanTransition does not allow.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, to)
	}
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, to)
	}
	return s.repo.UpdateStatus(ctx, orderID, to)
}

// ClaimPayment reserves an order for a single charging attempt. Concurrent
// callers race on the repository's conditional update; losers see
// ErrPaymentInFlight.
func (s *Service) ClaimPayment(ctx context.Context, orderID int64) error {
	return s.repo.ClaimPayment(ctx, orderID)
}

// MarkPaymentResult records the gateway outcome. A successful payment also
// advances a PLACED order to PAID.
func (s *Service) MarkPaymentResult(ctx context.Context, orderID int64, paid bool) error {
	if !paid {
		return s.repo.UpdatePaymentStatus(ctx, orderID, PaymentFailed)
	}
	if err := s.repo.UpdatePaymentStatus(ctx, orderID, PaymentPaid); err != nil {
		return err
	}
	if err := s.UpdateStatus(ctx, orderID, StatusPaid); err != nil && !errors.Is(err, ErrIllegalTransition) {
		return err
	}
	return nil
}
