package user

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
)

// AuthenticatedFunc is invoked when a request carrying a guest token signs
// in or registers, so the guest cart can be merged into the user's cart.
type AuthenticatedFunc func(ctx context.Context, guestToken string, userID int) error

type Handler struct {
	service         *Service
	onAuthenticated AuthenticatedFunc
}

func NewHandler(service *Service, onAuthenticated AuthenticatedFunc) *Handler {
	return &Handler{service: service, onAuthenticated: onAuthenticated}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/sign-in", h.login)
	app.Post("/api/v1/sign-up", h.register)
	app.Get("/api/v1/guest-token", h.guestToken)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/profile", h.getProfile)
	app.Put("/api/v1/profile", h.updateProfile)
	app.Patch("/api/v1/profile", h.updateProfile)
}

type loginRequest struct {
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	login := payload.Email
	if login == "" {
		login = payload.Mobile
	}
	if login == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "email or mobile is required"})
	}
	if payload.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "password is required"})
	}

	u, err := h.service.Authenticate(login, payload.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid credentials"})
	}

	h.adoptGuestCart(c, u.ID)
	return h.respondWithToken(c, u)
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Email == "" || payload.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "email and password are required"})
	}

	u, err := h.service.Register(User{
		Name:     payload.Name,
		Email:    payload.Email,
		Mobile:   payload.Mobile,
		Password: payload.Password,
	})
	if err != nil {
		switch err {
		case ErrEmailExists:
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "email already exists"})
		case ErrMobileExists:
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "mobile already exists"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}

	h.adoptGuestCart(c, u.ID)
	return h.respondWithToken(c, u)
}

// adoptGuestCart merges a guest cart into the freshly authenticated user's
// cart. A merge failure does not fail the sign-in; the cart engine keeps the
// operation retryable.
func (h *Handler) adoptGuestCart(c *fiber.Ctx, userID int) {
	guestToken := c.Get(GuestTokenHeader)
	if guestToken == "" || h.onAuthenticated == nil {
		return
	}
	if err := h.onAuthenticated(c.Context(), guestToken, userID); err != nil {
		log.Warn().Err(err).Int("user_id", userID).Msg("guest cart merge failed")
	}
}

func (h *Handler) respondWithToken(c *fiber.Ctx, u User) error {
	claims := jwt.MapClaims{
		"user_id":  u.ID,
		"email":    u.Email,
		"is_admin": u.IsAdmin,
		"exp":      time.Now().Add(72 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}

	return c.JSON(fiber.Map{"token": signed, "user": sanitizeUser(u)})
}

func (h *Handler) guestToken(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"guestToken": NewGuestToken()})
}

func (h *Handler) getProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	u, err := h.service.GetByID(userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
	}
	return c.JSON(sanitizeUser(u))
}

type profileUpdateRequest struct {
	Name   *string `json:"name,omitempty"`
	Mobile *string `json:"mobile,omitempty"`
	Image  *string `json:"image,omitempty"`
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	existing, err := h.service.GetByID(userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
	}

	payload := new(profileUpdateRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Name != nil {
		existing.Name = *payload.Name
	}
	if payload.Mobile != nil {
		existing.Mobile = *payload.Mobile
	}
	if payload.Image != nil {
		existing.Image = *payload.Image
	}

	updated, err := h.service.UpdateProfile(userID, existing)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(sanitizeUser(updated))
}
