package cart

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Shubrajit22/Zestware1/internal/catalog"
	"github.com/Shubrajit22/Zestware1/internal/user"
)

// Service owns all cart state transitions. Every mutation goes through the
// repository's versioned Update, so two tabs racing on the same cart cannot
// silently overwrite each other: the loser sees ErrStaleCart.
type Service struct {
	repo     Repository
	catalog  catalog.ServiceInterface
	maxQty   int
	guestTTL time.Duration
}

func NewService(repo Repository, cat catalog.ServiceInterface, maxLineQuantity int, guestTTL time.Duration) *Service {
	if maxLineQuantity < 1 {
		maxLineQuantity = 1
	}
	return &Service{repo: repo, catalog: cat, maxQty: maxLineQuantity, guestTTL: guestTTL}
}

// resolvePrice maps catalog errors onto the cart error taxonomy.
func (s *Service) resolvePrice(ctx context.Context, productID int, size string) (int, error) {
	price, err := s.catalog.ResolvePrice(ctx, productID, size)
	switch {
	case err == nil:
		return price, nil
	case errors.Is(err, catalog.ErrNotFound):
		return 0, ErrProductNotFound
	case errors.Is(err, catalog.ErrVariantNotFound):
		return 0, ErrVariantNotFound
	default:
		return 0, err
	}
}

// AddItem puts qty units of product+size into the identity's cart. Adding an
// existing (productID, size) combination sums quantities (clamped to the
// per-line cap) and refreshes the cached unit price. expectedVersion may be
// AnyVersion: a retried add is safe either way, it merges into the same line.
func (s *Service) AddItem(ctx context.Context, id user.Identity, productID int, size string, qty int, expectedVersion int64) (Cart, error) {
	if qty < 1 {
		return Cart{}, ErrInvalidQuantity
	}

	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Cart{}, ErrProductNotFound
		}
		return Cart{}, err
	}
	if len(p.SizeOptions) == 0 {
		// size is meaningless without variants; normalize so the line key
		// stays unique
		size = ""
	}
	price, err := p.PriceFor(size)
	if err != nil {
		return Cart{}, ErrVariantNotFound
	}

	return s.repo.Update(ctx, id, expectedVersion, s.guestTTL, func(c *Cart) error {
		if ln := c.findByKey(productID, size); ln != nil {
			ln.Quantity = s.clamp(ln.Quantity + qty)
			ln.UnitPrice = price
			ln.UpdatedAt = time.Now()
			return nil
		}
		c.Lines = append(c.Lines, Line{
			ProductID: productID,
			Size:      size,
			Quantity:  s.clamp(qty),
			UnitPrice: price,
			UpdatedAt: time.Now(),
		})
		return nil
	})
}

// UpdateQuantity sets the quantity of an existing line. Callers wanting
// removal must use RemoveItem; zero is not a valid quantity here.
func (s *Service) UpdateQuantity(ctx context.Context, id user.Identity, lineID int64, newQty int, expectedVersion int64) (Cart, error) {
	if newQty < 1 {
		return Cart{}, ErrInvalidQuantity
	}
	return s.repo.Update(ctx, id, expectedVersion, s.guestTTL, func(c *Cart) error {
		ln := c.findLine(lineID)
		if ln == nil {
			return ErrLineNotFound
		}
		ln.Quantity = s.clamp(newQty)
		ln.UpdatedAt = time.Now()
		return nil
	})
}

// ChangeSize moves a line to a different size variant, re-resolving the
// price. When a line for the destination (productID, newSize) already
// exists, the two are merged so the uniqueness invariant holds.
func (s *Service) ChangeSize(ctx context.Context, id user.Identity, lineID int64, newSize string, expectedVersion int64) (Cart, error) {
	return s.repo.Update(ctx, id, expectedVersion, s.guestTTL, func(c *Cart) error {
		ln := c.findLine(lineID)
		if ln == nil {
			return ErrLineNotFound
		}
		p, err := s.catalog.GetProduct(ctx, ln.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if len(p.SizeOptions) == 0 {
			// same normalization as AddItem, otherwise a stored size would
			// split the line key for a variant-less product
			newSize = ""
		}
		price, err := p.PriceFor(newSize)
		if err != nil {
			return ErrVariantNotFound
		}

		if dst := c.findByKey(ln.ProductID, newSize); dst != nil && dst.ID != ln.ID {
			dst.Quantity = s.clamp(dst.Quantity + ln.Quantity)
			dst.UnitPrice = price
			dst.UpdatedAt = time.Now()
			c.removeLine(ln.ID)
			return nil
		}

		ln.Size = newSize
		ln.UnitPrice = price
		ln.UpdatedAt = time.Now()
		return nil
	})
}

// RemoveItem deletes a line. Removing a line that is already gone is a
// success so dropped-and-retried client calls stay safe.
func (s *Service) RemoveItem(ctx context.Context, id user.Identity, lineID int64, expectedVersion int64) (Cart, error) {
	return s.repo.Update(ctx, id, expectedVersion, s.guestTTL, func(c *Cart) error {
		c.removeLine(lineID)
		return nil
	})
}

// Clear empties the cart. Used by clients and retried safely: clearing an
// empty cart succeeds.
func (s *Service) Clear(ctx context.Context, id user.Identity, expectedVersion int64) (Cart, error) {
	return s.repo.Update(ctx, id, expectedVersion, s.guestTTL, func(c *Cart) error {
		c.Lines = nil
		return nil
	})
}

// View returns the cart with every line priced fresh from the catalog. The
// cached prices are left untouched; PriceChanged tells the client to show a
// price-change notice.
func (s *Service) View(ctx context.Context, id user.Identity) (View, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrCartNotFound) {
		return View{Lines: []LineView{}}, nil
	}
	if err != nil {
		return View{}, err
	}

	v := View{Version: c.Version, Lines: make([]LineView, 0, len(c.Lines))}
	for _, ln := range c.Lines {
		lv := LineView{Line: ln, LivePrice: ln.UnitPrice}
		live, err := s.resolvePrice(ctx, ln.ProductID, ln.Size)
		switch {
		case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrVariantNotFound):
			lv.Unavailable = true
		case err != nil:
			return View{}, err
		default:
			lv.LivePrice = live
			lv.PriceChanged = live != ln.UnitPrice
		}
		v.Total += ln.UnitPrice * ln.Quantity
		if !lv.Unavailable {
			v.LiveTotal += lv.LivePrice * ln.Quantity
		}
		v.Lines = append(v.Lines, lv)
	}
	return v, nil
}

// Get exposes the raw cart (cached prices, current version).
func (s *Service) Get(ctx context.Context, id user.Identity) (Cart, error) {
	return s.repo.Get(ctx, id)
}

// MergeGuestCart folds the guest cart into the user's server cart at login.
// Quantities for the same (productID, size) are summed and clamped;
// everything else moves over. The guest cart is deleted in the same
// transaction, so retrying the merge is a no-op.
func (s *Service) MergeGuestCart(ctx context.Context, guestToken string, userID int) (Cart, error) {
	merged, err := s.repo.Merge(ctx, guestToken, userID, func(src Cart, dst *Cart) {
		for _, ln := range src.Lines {
			if existing := dst.findByKey(ln.ProductID, ln.Size); existing != nil {
				existing.Quantity = s.clamp(existing.Quantity + ln.Quantity)
				existing.UpdatedAt = time.Now()
				continue
			}
			moved := ln
			moved.ID = 0 // re-assigned by the destination cart
			moved.UpdatedAt = time.Now()
			dst.Lines = append(dst.Lines, moved)
		}
	})
	if err != nil {
		return Cart{}, err
	}
	log.Info().Int("user_id", userID).Int("lines", len(merged.Lines)).Msg("guest cart merged")
	return merged, nil
}

func (s *Service) clamp(qty int) int {
	if qty > s.maxQty {
		return s.maxQty
	}
	return qty
}
