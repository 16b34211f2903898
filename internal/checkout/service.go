package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Shubrajit22/Zestware1/internal/cart"
	"github.com/Shubrajit22/Zestware1/internal/catalog"
	"github.com/Shubrajit22/Zestware1/internal/order"
	"github.com/Shubrajit22/Zestware1/internal/user"
)

// Service turns a versioned cart into an immutable order. Validation and
// pricing happen against the live catalog; the commit itself goes through
// the Store so the cart clear and the order insert share one transaction.
type Service struct {
	carts   *cart.Service
	catalog catalog.ServiceInterface
	orders  order.ServiceInterface
	store   Store
	gateway Gateway
}

func NewService(carts *cart.Service, cat catalog.ServiceInterface, orders order.ServiceInterface, store Store, gateway Gateway) *Service {
	return &Service{carts: carts, catalog: cat, orders: orders, store: store, gateway: gateway}
}

// Checkout places an order from the identity's cart. expectedVersion is the
// cart version the client last saw; any mismatch, including a replay of a
// checkout that already committed, returns cart.ErrStaleCart.
func (s *Service) Checkout(ctx context.Context, id user.Identity, expectedVersion int64, shippingAddress string) (Result, error) {
	if id.IsGuest() {
		return Result{}, ErrGuestCheckout
	}
	if shippingAddress == "" {
		return Result{}, ErrNoAddress
	}
	if expectedVersion <= 0 {
		return Result{}, cart.ErrStaleCart
	}

	logger := log.With().Int("user_id", id.UserID).Int64("expected_version", expectedVersion).Logger()
	logger.Info().Str("stage", string(StageInitiated)).Msg("checkout started")

	c, err := s.carts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			return Result{}, cart.ErrStaleCart
		}
		return Result{}, err
	}
	if c.Version != expectedVersion {
		return Result{}, cart.ErrStaleCart
	}
	if len(c.Lines) == 0 {
		return Result{}, ErrEmptyCart
	}

	items, warnings, total, err := s.validate(ctx, c.Lines)
	if err != nil {
		return Result{}, err
	}
	if len(items) == 0 {
		return Result{Warnings: warnings}, ErrEmptyCart
	}
	logger.Info().Str("stage", string(StageValidated)).
		Int("items", len(items)).Int("dropped", len(c.Lines)-len(items)).Int("total", total).
		Msg("cart validated")

	o := order.Order{
		Reference:       newReference(),
		UserID:          id.UserID,
		Status:          order.StatusPlaced,
		PaymentStatus:   order.PaymentPending,
		ShippingAddress: shippingAddress,
		TotalAmount:     total,
		Items:           items,
		CreatedAt:       time.Now(),
	}

	created, err := s.store.CreateOrderAndClearCart(ctx, id, expectedVersion, o)
	if err != nil {
		logger.Warn().Str("stage", string(StageFailed)).Err(err).Msg("checkout aborted")
		return Result{}, err
	}
	logger.Info().Str("stage", string(StageOrderCreated)).
		Int64("order_id", created.ID).Str("reference", created.Reference).
		Msg("order placed")

	return Result{Order: created, Warnings: warnings}, nil
}

// validate freezes each cart line against the live catalog. Vanished
// products and sizes are dropped with a warning; price drift is recorded
// and the live price wins.
func (s *Service) validate(ctx context.Context, lines []cart.Line) ([]order.Item, []Warning, int, error) {
	items := make([]order.Item, 0, len(lines))
	warnings := make([]Warning, 0)
	total := 0

	for _, ln := range lines {
		p, err := s.catalog.GetProduct(ctx, ln.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			warnings = append(warnings, Warning{LineID: ln.ID, ProductID: ln.ProductID, Size: ln.Size, Reason: ReasonProductUnavailable})
			continue
		}
		if err != nil {
			return nil, nil, 0, err
		}

		price, err := p.PriceFor(ln.Size)
		if errors.Is(err, catalog.ErrVariantNotFound) {
			warnings = append(warnings, Warning{LineID: ln.ID, ProductID: ln.ProductID, Size: ln.Size, Reason: ReasonSizeUnavailable})
			continue
		}
		if err != nil {
			return nil, nil, 0, err
		}
		if price != ln.UnitPrice {
			warnings = append(warnings, Warning{
				LineID: ln.ID, ProductID: ln.ProductID, Size: ln.Size,
				Reason: ReasonPriceChanged, OldPrice: ln.UnitPrice, NewPrice: price,
			})
		}

		items = append(items, order.Item{
			ProductID:   ln.ProductID,
			ProductName: p.Name,
			Size:        ln.Size,
			Quantity:    ln.Quantity,
			UnitPrice:   price,
		})
		total += price * ln.Quantity
	}
	return items, warnings, total, nil
}

// Pay charges a placed order through the gateway and records the outcome.
// Paying an already-paid order is a no-op returning the current state.
func (s *Service) Pay(ctx context.Context, userID int, orderID int64) (order.Order, ChargeResult, error) {
	o, err := s.orders.GetForUser(ctx, userID, orderID)
	if err != nil {
		return order.Order{}, ChargeResult{}, err
	}
	if o.PaymentStatus == order.PaymentPaid {
		return o, ChargeResult{Approved: true}, nil
	}
	if o.Status != order.StatusPlaced {
		return order.Order{}, ChargeResult{}, order.ErrIllegalTransition
	}

	// claim the order so only one caller reaches the gateway
	if err := s.orders.ClaimPayment(ctx, orderID); err != nil {
		return order.Order{}, ChargeResult{}, err
	}

	res, err := s.gateway.Charge(ctx, o.Reference, o.TotalAmount)
	if err != nil {
		// release the claim so a later attempt can retry the charge
		if markErr := s.orders.MarkPaymentResult(ctx, orderID, false); markErr != nil {
			log.Warn().Err(markErr).Int64("order_id", orderID).Msg("release payment claim")
		}
		return order.Order{}, ChargeResult{}, err
	}
	if err := s.orders.MarkPaymentResult(ctx, orderID, res.Approved); err != nil {
		return order.Order{}, ChargeResult{}, err
	}

	log.Info().Int64("order_id", orderID).Bool("approved", res.Approved).
		Str("provider_ref", res.ProviderRef).Msg("payment processed")

	updated, err := s.orders.GetForUser(ctx, userID, orderID)
	if err != nil {
		return order.Order{}, ChargeResult{}, err
	}
	return updated, res, nil
}
