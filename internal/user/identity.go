package user

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// GuestTokenHeader is where pre-authentication clients present the token
// issued by GET /api/v1/guest-token. The client persists it locally; the
// server-side cart keyed by it is the source of truth.
const GuestTokenHeader = "X-Guest-Token"

// Identity is the stable per-request key every cart operation is scoped to:
// either an authenticated user id or a client-held guest token, never both.
type Identity struct {
	UserID     int
	GuestToken string
}

func UserIdentity(userID int) Identity { return Identity{UserID: userID} }
func GuestIdentity(token string) Identity { return Identity{GuestToken: token} }

func (id Identity) IsGuest() bool { return id.UserID == 0 }

// Key returns the storage key for this identity.
func (id Identity) Key() string {
	if id.IsGuest() {
		return "guest:" + id.GuestToken
	}
	return fmt.Sprintf("user:%d", id.UserID)
}

// NewGuestToken mints an opaque token for an anonymous visitor.
func NewGuestToken() string {
	return uuid.NewString()
}

// CurrentIdentity resolves the caller of a request. Authenticated requests
// win (JWT claims set by the jwtware middleware); otherwise a guest token
// header is accepted.
func CurrentIdentity(c *fiber.Ctx) (Identity, error) {
	if userID, err := GetUserIDFromCtx(c); err == nil {
		return UserIdentity(userID), nil
	}
	if tok := c.Get(GuestTokenHeader); tok != "" {
		if _, err := uuid.Parse(tok); err != nil {
			return Identity{}, fiber.ErrUnauthorized
		}
		return GuestIdentity(tok), nil
	}
	return Identity{}, fiber.ErrUnauthorized
}

// GetUserIDFromCtx extracts the authenticated user id from the JWT token the
// middleware stored in locals.
func GetUserIDFromCtx(c *fiber.Ctx) (int, error) {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return 0, err
	}
	if raw, ok := claims["user_id"]; ok {
		switch v := raw.(type) {
		case float64:
			return int(v), nil
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case string:
			id, err := strconv.Atoi(v)
			if err != nil {
				return 0, fiber.ErrUnauthorized
			}
			return id, nil
		}
	}
	return 0, fiber.ErrUnauthorized
}

// IsAdminFromCtx reports whether the authenticated caller carries the admin
// claim. Unauthenticated callers are never admins.
func IsAdminFromCtx(c *fiber.Ctx) bool {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return false
	}
	isAdmin, _ := claims["is_admin"].(bool)
	return isAdmin
}

func claimsFromCtx(c *fiber.Ctx) (jwt.MapClaims, error) {
	u := c.Locals("user")
	if u == nil {
		return nil, fiber.ErrUnauthorized
	}
	tok, ok := u.(*jwt.Token)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}
