package user

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func makeApp(h *Handler) *fiber.App {
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	return app
}

func TestSignUpAndSignIn(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	svc := NewService(NewInMemoryRepository(nil))
	app := makeApp(NewHandler(svc, nil))

	// register
	req := httptest.NewRequest("POST", "/api/v1/sign-up",
		strings.NewReader(`{"name":"Asha","email":"asha@example.com","password":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for sign-up, got %d", res.StatusCode)
	}
	var signup struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	if err := json.NewDecoder(res.Body).Decode(&signup); err != nil {
		t.Fatalf("decode sign-up response: %v", err)
	}
	if signup.Token == "" {
		t.Fatal("expected a JWT in the sign-up response")
	}
	if signup.User.Password != "" {
		t.Fatal("password must not leak in responses")
	}

	// duplicate email
	req = httptest.NewRequest("POST", "/api/v1/sign-up",
		strings.NewReader(`{"name":"Asha","email":"asha@example.com","password":"other"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", res.StatusCode)
	}

	// duplicate mobile under a fresh email
	req = httptest.NewRequest("POST", "/api/v1/sign-up",
		strings.NewReader(`{"name":"Ravi","email":"ravi@example.com","mobile":"9800000001","password":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for mobile sign-up, got %d", res.StatusCode)
	}
	req = httptest.NewRequest("POST", "/api/v1/sign-up",
		strings.NewReader(`{"name":"Mina","email":"mina@example.com","mobile":"9800000001","password":"other"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 for duplicate mobile, got %d", res.StatusCode)
	}

	// sign in with the right password
	req = httptest.NewRequest("POST", "/api/v1/sign-in",
		strings.NewReader(`{"email":"asha@example.com","password":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for sign-in, got %d", res.StatusCode)
	}

	// wrong password
	req = httptest.NewRequest("POST", "/api/v1/sign-in",
		strings.NewReader(`{"email":"asha@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", res.StatusCode)
	}
}

func TestSignIn_MergesGuestCart(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	svc := NewService(NewInMemoryRepository(nil))

	var gotToken string
	var gotUserID int
	hook := func(ctx context.Context, guestToken string, userID int) error {
		gotToken = guestToken
		gotUserID = userID
		return nil
	}
	app := makeApp(NewHandler(svc, hook))

	if _, err := svc.Register(User{Name: "Asha", Email: "asha@example.com", Password: "s3cret"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	tok := "a9b8c7d6-e5f4-4321-9876-0123456789ab"
	req := httptest.NewRequest("POST", "/api/v1/sign-in",
		strings.NewReader(`{"email":"asha@example.com","password":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(GuestTokenHeader, tok)
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if gotToken != tok || gotUserID != 1 {
		t.Fatalf("merge hook not invoked correctly: token=%q userID=%d", gotToken, gotUserID)
	}

	// without the header the hook stays silent
	gotToken = ""
	req = httptest.NewRequest("POST", "/api/v1/sign-in",
		strings.NewReader(`{"email":"asha@example.com","password":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if gotToken != "" {
		t.Fatal("hook must not fire without a guest token")
	}
}

func TestGuestTokenEndpoint(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))
	app := makeApp(NewHandler(svc, nil))

	res, _ := app.Test(httptest.NewRequest("GET", "/api/v1/guest-token", nil))
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var out struct {
		GuestToken string `json:"guestToken"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.GuestToken == "" {
		t.Fatal("expected a guest token")
	}
}
