package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/Shubrajit22/Zestware1/internal/cart"
	"github.com/Shubrajit22/Zestware1/internal/catalog"
	"github.com/Shubrajit22/Zestware1/internal/order"
	"github.com/Shubrajit22/Zestware1/internal/user"
)

type fixture struct {
	carts    *cart.Service
	catalog  *catalog.Service
	orders   *order.Service
	gateway  *FakeGateway
	checkout *Service
}

func newFixture() *fixture {
	seed := []catalog.Product{
		{ID: 1, Name: "Classic Tee", Price: 499, CategoryID: 1},
		{ID: 2, Name: "Varsity Hoodie", Price: 599, CategoryID: 1, SizeOptions: []catalog.SizeVariant{
			{Size: "M", Price: 599},
			{Size: "XL", Price: 699},
		}},
	}
	cat := catalog.NewService(catalog.NewInMemoryRepository(seed))
	cartRepo := cart.NewInMemoryRepository()
	carts := cart.NewService(cartRepo, cat, 20, 0)
	orderRepo := order.NewInMemoryRepository()
	orders := order.NewService(orderRepo, cat)
	gateway := NewFakeGateway()
	svc := NewService(carts, cat, orders, NewInMemoryStore(cartRepo, orderRepo), gateway)
	return &fixture{carts: carts, catalog: cat, orders: orders, gateway: gateway, checkout: svc}
}

// fillCart adds a hoodie and a tee and returns the resulting cart version.
func (f *fixture) fillCart(t *testing.T, userID int) int64 {
	t.Helper()
	ctx := context.Background()
	id := user.UserIdentity(userID)
	c, err := f.carts.AddItem(ctx, id, 2, "M", 2, cart.AnyVersion)
	if err != nil {
		t.Fatalf("add hoodie: %v", err)
	}
	c, err = f.carts.AddItem(ctx, id, 1, "", 1, c.Version)
	if err != nil {
		t.Fatalf("add tee: %v", err)
	}
	return c.Version
}

func TestCheckout_CreatesOrderAndClearsCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := user.UserIdentity(7)
	version := f.fillCart(t, 7)

	res, err := f.checkout.Checkout(ctx, id, version, "7 College Road, Guwahati, 781001")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	o := res.Order
	if o.ID == 0 || o.Reference == "" {
		t.Fatalf("expected persisted order, got %+v", o)
	}
	if o.Status != order.StatusPlaced || o.PaymentStatus != order.PaymentPending {
		t.Fatalf("unexpected initial statuses: %s / %s", o.Status, o.PaymentStatus)
	}
	if o.TotalAmount != 2*599+499 {
		t.Fatalf("expected total %d, got %d", 2*599+499, o.TotalAmount)
	}
	if len(o.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(o.Items))
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", res.Warnings)
	}

	// the cart survives but is empty, with a bumped version
	c, err := f.carts.Get(ctx, id)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(c.Lines) != 0 {
		t.Fatalf("expected cleared cart, got %d lines", len(c.Lines))
	}
	if c.Version != version+1 {
		t.Fatalf("expected version %d after checkout, got %d", version+1, c.Version)
	}
}

func TestCheckout_ReplayDoesNotDuplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := user.UserIdentity(7)
	version := f.fillCart(t, 7)

	if _, err := f.checkout.Checkout(ctx, id, version, "addr"); err != nil {
		t.Fatalf("first checkout: %v", err)
	}

	// a retried checkout with the same version must not create a second order
	_, err := f.checkout.Checkout(ctx, id, version, "addr")
	if !errors.Is(err, cart.ErrStaleCart) {
		t.Fatalf("expected ErrStaleCart on replay, got %v", err)
	}

	orders, err := f.orders.ListByUser(ctx, 7)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected exactly one order, got %d", len(orders))
	}
}

func TestCheckout_GuestRejected(t *testing.T) {
	f := newFixture()
	guest := user.GuestIdentity("a9b8c7d6-e5f4-4321-9876-0123456789ab")
	_, err := f.checkout.Checkout(context.Background(), guest, 1, "addr")
	if !errors.Is(err, ErrGuestCheckout) {
		t.Fatalf("expected ErrGuestCheckout, got %v", err)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := user.UserIdentity(7)

	c, err := f.carts.AddItem(ctx, id, 1, "", 1, cart.AnyVersion)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	c, err = f.carts.RemoveItem(ctx, id, c.Lines[0].ID, c.Version)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := f.checkout.Checkout(ctx, id, c.Version, "addr"); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckout_SnapshotSurvivesRepricing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := user.UserIdentity(7)
	version := f.fillCart(t, 7)

	res, err := f.checkout.Checkout(ctx, id, version, "addr")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// reprice everything after the order is placed
	p, _ := f.catalog.GetProduct(ctx, 1)
	p.Price = 999
	if _, err := f.catalog.Update(ctx, p); err != nil {
		t.Fatalf("reprice: %v", err)
	}

	got, err := f.orders.GetForUser(ctx, 7, res.Order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if got.TotalAmount != res.Order.TotalAmount {
		t.Fatalf("order total changed after repricing: %d -> %d", res.Order.TotalAmount, got.TotalAmount)
	}
	for _, it := range got.Items {
		if it.ProductID == 1 && it.UnitPrice != 499 {
			t.Fatalf("snapshot price changed: %d", it.UnitPrice)
		}
	}
}

func TestCheckout_RepricesAtCheckoutWithWarning(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := user.UserIdentity(7)
	version := f.fillCart(t, 7)

	// price changes between add-to-cart and checkout
	p, _ := f.catalog.GetProduct(ctx, 1)
	p.Price = 549
	if _, err := f.catalog.Update(ctx, p); err != nil {
		t.Fatalf("reprice: %v", err)
	}

	res, err := f.checkout.Checkout(ctx, id, version, "addr")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if res.Order.TotalAmount != 2*599+549 {
		t.Fatalf("expected live price in total, got %d", res.Order.TotalAmount)
	}

	var warned bool
	for _, w := range res.Warnings {
		if w.Reason == ReasonPriceChanged && w.ProductID == 1 && w.OldPrice == 499 && w.NewPrice == 549 {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected price-change warning, got %+v", res.Warnings)
	}
}

func TestCheckout_DropsVanishedLines(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := user.UserIdentity(7)
	version := f.fillCart(t, 7)

	if err := f.catalog.Delete(ctx, 1); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	res, err := f.checkout.Checkout(ctx, id, version, "addr")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(res.Order.Items) != 1 || res.Order.Items[0].ProductID != 2 {
		t.Fatalf("expected only the hoodie to survive, got %+v", res.Order.Items)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Reason != ReasonProductUnavailable {
		t.Fatalf("expected product_unavailable warning, got %+v", res.Warnings)
	}
}

func TestPay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := user.UserIdentity(7)
	version := f.fillCart(t, 7)

	res, err := f.checkout.Checkout(ctx, id, version, "addr")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	o, charge, err := f.checkout.Pay(ctx, 7, res.Order.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if !charge.Approved {
		t.Fatal("expected approved charge")
	}
	if o.PaymentStatus != order.PaymentPaid || o.Status != order.StatusPaid {
		t.Fatalf("unexpected statuses after pay: %s / %s", o.Status, o.PaymentStatus)
	}

	// paying again is a no-op
	o2, charge2, err := f.checkout.Pay(ctx, 7, res.Order.ID)
	if err != nil {
		t.Fatalf("second pay: %v", err)
	}
	if !charge2.Approved || o2.PaymentStatus != order.PaymentPaid {
		t.Fatalf("expected idempotent pay, got %+v / %+v", o2, charge2)
	}

	// a stranger cannot pay someone else's order
	if _, _, err := f.checkout.Pay(ctx, 8, res.Order.ID); !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign order, got %v", err)
	}
}

func TestPay_ClaimedOrderRejectsSecondAttempt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := user.UserIdentity(7)
	version := f.fillCart(t, 7)

	res, err := f.checkout.Checkout(ctx, id, version, "addr")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// another caller holds the claim: this attempt must not reach the gateway
	if err := f.orders.ClaimPayment(ctx, res.Order.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	charged := false
	f.gateway.Decline = func(int) bool {
		charged = true
		return false
	}
	if _, _, err := f.checkout.Pay(ctx, 7, res.Order.ID); !errors.Is(err, order.ErrPaymentInFlight) {
		t.Fatalf("expected ErrPaymentInFlight, got %v", err)
	}
	if charged {
		t.Fatal("gateway was charged while the claim was held")
	}

	// a released claim (failed attempt) can be retried
	if err := f.orders.MarkPaymentResult(ctx, res.Order.ID, false); err != nil {
		t.Fatalf("release claim: %v", err)
	}
	o, _, err := f.checkout.Pay(ctx, 7, res.Order.ID)
	if err != nil {
		t.Fatalf("retry pay: %v", err)
	}
	if o.PaymentStatus != order.PaymentPaid {
		t.Fatalf("expected PAID after retry, got %s", o.PaymentStatus)
	}
}

type failingOrderRepo struct {
	order.Repository
	fail bool
}

func (f *failingOrderRepo) Create(ctx context.Context, o order.Order) (order.Order, error) {
	if f.fail {
		return order.Order{}, errors.New("storage down")
	}
	return f.Repository.Create(ctx, o)
}

func TestInMemoryStore_RestoresCartWhenOrderWriteFails(t *testing.T) {
	cat := catalog.NewService(catalog.NewInMemoryRepository([]catalog.Product{
		{ID: 1, Name: "Classic Tee", Price: 499, CategoryID: 1},
	}))
	cartRepo := cart.NewInMemoryRepository()
	carts := cart.NewService(cartRepo, cat, 20, 0)
	orderRepo := &failingOrderRepo{Repository: order.NewInMemoryRepository(), fail: true}
	store := NewInMemoryStore(cartRepo, orderRepo)

	ctx := context.Background()
	id := user.UserIdentity(7)
	c, err := carts.AddItem(ctx, id, 1, "", 2, cart.AnyVersion)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err = store.CreateOrderAndClearCart(ctx, id, c.Version, order.Order{
		UserID: 7, Reference: "ZW-TEST", Status: order.StatusPlaced, PaymentStatus: order.PaymentPending,
	})
	if err == nil {
		t.Fatal("expected order write to fail")
	}

	// the cleared lines came back and no order was persisted
	got, err := carts.Get(ctx, id)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].Quantity != 2 {
		t.Fatalf("expected restored cart lines, got %+v", got.Lines)
	}
	list, err := orderRepo.ListByUser(ctx, 7)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no orders, got %d", len(list))
	}
}

func TestPay_Declined(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := user.UserIdentity(7)
	version := f.fillCart(t, 7)

	res, err := f.checkout.Checkout(ctx, id, version, "addr")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	f.gateway.Decline = func(int) bool { return true }
	o, charge, err := f.checkout.Pay(ctx, 7, res.Order.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if charge.Approved {
		t.Fatal("expected declined charge")
	}
	if o.PaymentStatus != order.PaymentFailed {
		t.Fatalf("expected FAILED payment status, got %s", o.PaymentStatus)
	}
	if o.Status != order.StatusPlaced {
		t.Fatalf("order must stay PLACED after a failed charge, got %s", o.Status)
	}

	// a later successful attempt still goes through
	f.gateway.Decline = nil
	o, _, err = f.checkout.Pay(ctx, 7, res.Order.ID)
	if err != nil {
		t.Fatalf("retry pay: %v", err)
	}
	if o.PaymentStatus != order.PaymentPaid {
		t.Fatalf("expected PAID after retry, got %s", o.PaymentStatus)
	}
}
