package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/Shubrajit22/Zestware1/internal/address"
	"github.com/Shubrajit22/Zestware1/internal/user"
)

func makeApp(f *fixture, addresses address.ServiceInterface) *fiber.App {
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
	NewHandler(f.checkout, addresses).RegisterProtectedRoutes(app)
	return app
}

func TestCheckoutHandler(t *testing.T) {
	f := newFixture()
	addrSvc := address.NewService(address.NewInMemoryRepository())
	saved, err := addrSvc.AddAddress(context.Background(), address.Address{
		UserID: 7, Recipient: "Asha Deka", Line1: "7 College Road", City: "Guwahati", Pincode: "781001",
	})
	if err != nil {
		t.Fatalf("seed address: %v", err)
	}
	app := makeApp(f, addrSvc)
	version := f.fillCart(t, 7)

	// guests cannot check out even with a valid token
	req := httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(`{"expectedVersion":1,"shippingAddress":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(user.GuestTokenHeader, "a9b8c7d6-e5f4-4321-9876-0123456789ab")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for guest checkout, got %d", res.StatusCode)
	}

	// missing expectedVersion
	req = httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(`{"shippingAddress":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "7")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 without expectedVersion, got %d", res.StatusCode)
	}

	// happy path with a saved address
	body := fmt.Sprintf(`{"expectedVersion":%d,"addressId":%d}`, version, saved.ID)
	req = httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "7")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	var result Result
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !strings.Contains(result.Order.ShippingAddress, "7 College Road") {
		t.Fatalf("expected formatted saved address, got %q", result.Order.ShippingAddress)
	}

	// replay with the consumed version conflicts
	req = httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "7")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 on replay, got %d", res.StatusCode)
	}

	// pay the order
	req = httptest.NewRequest("POST", fmt.Sprintf("/api/v1/orders/%d/pay", result.Order.ID), nil)
	req.Header.Set("X-User-ID", "7")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for pay, got %d", res.StatusCode)
	}
}
