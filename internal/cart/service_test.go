package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/Shubrajit22/Zestware1/internal/catalog"
	"github.com/Shubrajit22/Zestware1/internal/user"
)

func newTestService() (*Service, *catalog.Service) {
	seed := []catalog.Product{
		{ID: 1, Name: "Classic Tee", Price: 499, CategoryID: 1},
		{ID: 2, Name: "Varsity Hoodie", Price: 599, CategoryID: 1, SizeOptions: []catalog.SizeVariant{
			{Size: "M", Price: 599},
			{Size: "XL", Price: 699},
		}},
		{ID: 3, Name: "Campus Cap", Price: 249, CategoryID: 2},
	}
	cat := catalog.NewService(catalog.NewInMemoryRepository(seed))
	return NewService(NewInMemoryRepository(), cat, 20, 0), cat
}

func TestAddItem_UpsertsSameProductAndSize(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	id := user.UserIdentity(7)

	c, err := svc.AddItem(ctx, id, 2, "M", 1, AnyVersion)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	if c.Version != 1 {
		t.Fatalf("expected version 1 after first add, got %d", c.Version)
	}

	c, err = svc.AddItem(ctx, id, 2, "M", 2, c.Version)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(c.Lines) != 1 {
		t.Fatalf("expected 1 line after re-add, got %d", len(c.Lines))
	}
	if c.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", c.Lines[0].Quantity)
	}
	if c.Lines[0].UnitPrice != 599 {
		t.Fatalf("expected variant price 599, got %d", c.Lines[0].UnitPrice)
	}

	// different size of the same product is its own line
	c, err = svc.AddItem(ctx, id, 2, "XL", 1, c.Version)
	if err != nil {
		t.Fatalf("add XL: %v", err)
	}
	if len(c.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(c.Lines))
	}
}

func TestAddItem_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	id := user.UserIdentity(7)

	if _, err := svc.AddItem(ctx, id, 1, "", 0, AnyVersion); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := svc.AddItem(ctx, id, 99, "", 1, AnyVersion); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := svc.AddItem(ctx, id, 2, "XXS", 1, AnyVersion); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got %v", err)
	}
}

func TestAddItem_ClampsQuantity(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	id := user.UserIdentity(7)

	c, err := svc.AddItem(ctx, id, 1, "", 15, AnyVersion)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	c, err = svc.AddItem(ctx, id, 1, "", 15, c.Version)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if c.Lines[0].Quantity != 20 {
		t.Fatalf("expected clamp to 20, got %d", c.Lines[0].Quantity)
	}
}

func TestUpdateQuantity_StaleVersion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	id := user.UserIdentity(7)

	c, err := svc.AddItem(ctx, id, 1, "", 1, AnyVersion)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// a second client mutates the cart first
	c2, err := svc.AddItem(ctx, id, 3, "", 1, c.Version)
	if err != nil {
		t.Fatalf("concurrent add: %v", err)
	}

	// the first client retries with the version it last saw
	if _, err := svc.UpdateQuantity(ctx, id, c.Lines[0].ID, 5, c.Version); !errors.Is(err, ErrStaleCart) {
		t.Fatalf("expected ErrStaleCart, got %v", err)
	}

	// refetch and retry succeeds
	updated, err := svc.UpdateQuantity(ctx, id, c.Lines[0].ID, 5, c2.Version)
	if err != nil {
		t.Fatalf("retry after refetch: %v", err)
	}
	if updated.Version != c2.Version+1 {
		t.Fatalf("expected version %d, got %d", c2.Version+1, updated.Version)
	}
}

func TestRemoveItem_Idempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	id := user.UserIdentity(7)

	c, err := svc.AddItem(ctx, id, 1, "", 1, AnyVersion)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	lineID := c.Lines[0].ID

	c, err = svc.RemoveItem(ctx, id, lineID, c.Version)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(c.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(c.Lines))
	}

	// removing an already-removed line succeeds and still bumps the version
	c2, err := svc.RemoveItem(ctx, id, lineID, c.Version)
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if c2.Version != c.Version+1 {
		t.Fatalf("expected version bump on no-op remove, got %d", c2.Version)
	}
}

func TestChangeSize_RepricesAndMerges(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	id := user.UserIdentity(7)

	c, err := svc.AddItem(ctx, id, 2, "M", 2, AnyVersion)
	if err != nil {
		t.Fatalf("add M: %v", err)
	}

	c, err = svc.ChangeSize(ctx, id, c.Lines[0].ID, "XL", c.Version)
	if err != nil {
		t.Fatalf("change size: %v", err)
	}
	if c.Lines[0].Size != "XL" || c.Lines[0].UnitPrice != 699 {
		t.Fatalf("expected XL at 699, got %s at %d", c.Lines[0].Size, c.Lines[0].UnitPrice)
	}

	// changing into an existing (product, size) merges the lines
	c, err = svc.AddItem(ctx, id, 2, "M", 1, c.Version)
	if err != nil {
		t.Fatalf("re-add M: %v", err)
	}
	mLine := c.findByKey(2, "M")
	c, err = svc.ChangeSize(ctx, id, mLine.ID, "XL", c.Version)
	if err != nil {
		t.Fatalf("merge change: %v", err)
	}
	if len(c.Lines) != 1 {
		t.Fatalf("expected merged single line, got %d", len(c.Lines))
	}
	if c.Lines[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", c.Lines[0].Quantity)
	}
}

func TestChangeSize_NormalizesVariantlessProduct(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	id := user.UserIdentity(7)

	c, err := svc.AddItem(ctx, id, 1, "", 1, AnyVersion)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// product 1 has no variants: the requested size is dropped, not stored
	c, err = svc.ChangeSize(ctx, id, c.Lines[0].ID, "XL", c.Version)
	if err != nil {
		t.Fatalf("change size: %v", err)
	}
	if c.Lines[0].Size != "" {
		t.Fatalf("expected size normalized to empty, got %q", c.Lines[0].Size)
	}

	// a later add of the same product must land on the same line
	c, err = svc.AddItem(ctx, id, 1, "", 1, c.Version)
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if len(c.Lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(c.Lines))
	}
	if c.Lines[0].Quantity != 2 {
		t.Fatalf("expected merged quantity 2, got %d", c.Lines[0].Quantity)
	}
}

func TestUpdate_RejectsBogusNegativeVersion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	id := user.UserIdentity(7)

	c, err := svc.AddItem(ctx, id, 1, "", 1, AnyVersion)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// only AnyVersion skips the version check; other negatives are stale
	if _, err := svc.UpdateQuantity(ctx, id, c.Lines[0].ID, 2, -5); !errors.Is(err, ErrStaleCart) {
		t.Fatalf("expected ErrStaleCart for version -5, got %v", err)
	}
	if _, err := svc.UpdateQuantity(ctx, id, c.Lines[0].ID, 2, c.Version); err != nil {
		t.Fatalf("update with current version: %v", err)
	}
}

func TestView_FlagsPriceChange(t *testing.T) {
	svc, cat := newTestService()
	ctx := context.Background()
	id := user.UserIdentity(7)

	if _, err := svc.AddItem(ctx, id, 1, "", 2, AnyVersion); err != nil {
		t.Fatalf("add: %v", err)
	}

	p, _ := cat.GetProduct(ctx, 1)
	p.Price = 549
	if _, err := cat.Update(ctx, p); err != nil {
		t.Fatalf("reprice: %v", err)
	}

	v, err := svc.View(ctx, id)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !v.Lines[0].PriceChanged {
		t.Fatal("expected PriceChanged flag")
	}
	if v.Lines[0].UnitPrice != 499 {
		t.Fatalf("cached price must stay 499, got %d", v.Lines[0].UnitPrice)
	}
	if v.Total != 998 || v.LiveTotal != 1098 {
		t.Fatalf("expected total 998 / liveTotal 1098, got %d / %d", v.Total, v.LiveTotal)
	}
}

func TestView_MarksUnavailableLines(t *testing.T) {
	svc, cat := newTestService()
	ctx := context.Background()
	id := user.UserIdentity(7)

	if _, err := svc.AddItem(ctx, id, 3, "", 1, AnyVersion); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := cat.Delete(ctx, 3); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	v, err := svc.View(ctx, id)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !v.Lines[0].Unavailable {
		t.Fatal("expected Unavailable flag")
	}
	if v.LiveTotal != 0 {
		t.Fatalf("unavailable lines must not count toward liveTotal, got %d", v.LiveTotal)
	}
}

func TestMergeGuestCart(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	guestTok := "3f0c6f0e-4a87-4a3c-9d3f-2a4f9a1a2b3c"
	guest := user.GuestIdentity(guestTok)
	owner := user.UserIdentity(7)

	// guest: 2x tee; user: 1x tee + 1x cap
	if _, err := svc.AddItem(ctx, guest, 1, "", 2, AnyVersion); err != nil {
		t.Fatalf("guest add: %v", err)
	}
	c, err := svc.AddItem(ctx, owner, 1, "", 1, AnyVersion)
	if err != nil {
		t.Fatalf("user add: %v", err)
	}
	if _, err := svc.AddItem(ctx, owner, 3, "", 1, c.Version); err != nil {
		t.Fatalf("user add cap: %v", err)
	}

	merged, err := svc.MergeGuestCart(ctx, guestTok, 7)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(merged.Lines) != 2 {
		t.Fatalf("expected 2 lines after merge, got %d", len(merged.Lines))
	}
	if tee := merged.findByKey(1, ""); tee == nil || tee.Quantity != 3 {
		t.Fatalf("expected tee quantity 3 after merge, got %+v", tee)
	}

	// guest cart is gone
	if _, err := svc.Get(ctx, guest); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected guest cart deleted, got %v", err)
	}

	// retrying the merge changes nothing
	again, err := svc.MergeGuestCart(ctx, guestTok, 7)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if len(again.Lines) != 2 {
		t.Fatalf("merge retry must be a no-op, got %d lines", len(again.Lines))
	}
	if tee := again.findByKey(1, ""); tee.Quantity != 3 {
		t.Fatalf("merge retry must not double quantities, got %d", tee.Quantity)
	}
}

func TestClear(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	id := user.UserIdentity(7)

	c, err := svc.AddItem(ctx, id, 1, "", 2, AnyVersion)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	c, err = svc.Clear(ctx, id, c.Version)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(c.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(c.Lines))
	}
	if c.Total() != 0 {
		t.Fatalf("expected zero total, got %d", c.Total())
	}
}
