package cart

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/Shubrajit22/Zestware1/internal/user"
)

// makeApp wires the cart handler behind a fake JWT middleware: an
// X-User-ID header stands in for a verified token.
func makeApp(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				claims := jwt.MapClaims{"user_id": id}
				c.Locals("user", &jwt.Token{Claims: claims})
			}
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func decodeCart(t *testing.T, res io.Reader) cartResponse {
	t.Helper()
	var out cartResponse
	if err := json.NewDecoder(res).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestCartHandler_UserFlow(t *testing.T) {
	svc, _ := newTestService()
	app := makeApp(NewHandler(svc))

	// no identity at all
	req := httptest.NewRequest("GET", "/api/v1/cart", nil)
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", res.StatusCode)
	}

	// add an item as an authenticated user
	req = httptest.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(`{"productId":1,"quantity":2}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "42")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for add, got %d", res.StatusCode)
	}
	c := decodeCart(t, res.Body)
	if c.Version != 1 || len(c.Lines) != 1 || c.Total != 998 {
		t.Fatalf("unexpected cart after add: %+v", c)
	}

	// update quantity with the current version
	body := fmt.Sprintf(`{"quantity":5,"expectedVersion":%d}`, c.Version)
	req = httptest.NewRequest("PUT", fmt.Sprintf("/api/v1/cart/items/%d", c.Lines[0].ID), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "42")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for update, got %d", res.StatusCode)
	}
	c2 := decodeCart(t, res.Body)
	if c2.Lines[0].Quantity != 5 || c2.Version != 2 {
		t.Fatalf("unexpected cart after update: %+v", c2)
	}

	// replaying the same update with the old version conflicts
	res, _ = app.Test(mustJSONReq("PUT", fmt.Sprintf("/api/v1/cart/items/%d", c.Lines[0].ID), body, "42"))
	if res.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 for stale update, got %d", res.StatusCode)
	}

	// missing expectedVersion is rejected outright
	res, _ = app.Test(mustJSONReq("PUT", fmt.Sprintf("/api/v1/cart/items/%d", c.Lines[0].ID), `{"quantity":1}`, "42"))
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 without expectedVersion, got %d", res.StatusCode)
	}

	// remove via query-param version
	req = httptest.NewRequest("DELETE", fmt.Sprintf("/api/v1/cart/items/%d?expectedVersion=%d", c2.Lines[0].ID, c2.Version), nil)
	req.Header.Set("X-User-ID", "42")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for remove, got %d", res.StatusCode)
	}
	c3 := decodeCart(t, res.Body)
	if len(c3.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", c3)
	}
}

func mustJSONReq(method, target, body, userID string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	return req
}

func TestCartHandler_GuestFlow(t *testing.T) {
	svc, _ := newTestService()
	app := makeApp(NewHandler(svc))
	tok := "a9b8c7d6-e5f4-4321-9876-0123456789ab"

	req := httptest.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(`{"productId":3}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(user.GuestTokenHeader, tok)
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for guest add, got %d", res.StatusCode)
	}
	c := decodeCart(t, res.Body)
	if len(c.Lines) != 1 || c.Lines[0].Quantity != 1 {
		t.Fatalf("expected defaulted quantity 1, got %+v", c)
	}

	// a malformed guest token is refused
	req = httptest.NewRequest("GET", "/api/v1/cart", nil)
	req.Header.Set(user.GuestTokenHeader, "not-a-uuid")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for bad guest token, got %d", res.StatusCode)
	}

	// guest carts are isolated per token
	other := "11111111-2222-4333-8444-555555555555"
	req = httptest.NewRequest("GET", "/api/v1/cart", nil)
	req.Header.Set(user.GuestTokenHeader, other)
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var view View
	if err := json.NewDecoder(res.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("expected empty cart for other guest, got %+v", view)
	}
}
