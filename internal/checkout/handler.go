package checkout

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Shubrajit22/Zestware1/internal/address"
	"github.com/Shubrajit22/Zestware1/internal/cart"
	"github.com/Shubrajit22/Zestware1/internal/order"
	"github.com/Shubrajit22/Zestware1/internal/user"
)

type Handler struct {
	service   *Service
	addresses address.ServiceInterface
}

func NewHandler(s *Service, addresses address.ServiceInterface) *Handler {
	return &Handler{service: s, addresses: addresses}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/checkout", h.checkout)
	app.Post("/api/v1/orders/:orderId<[0-9]+>/pay", h.pay)
}

type checkoutRequest struct {
	ExpectedVersion int64 `json:"expectedVersion"`
	// Either a saved address id or a free-form shipping address. The saved
	// address wins when both are present.
	AddressID       int    `json:"addressId"`
	ShippingAddress string `json:"shippingAddress"`
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	id, err := user.CurrentIdentity(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}
	if req.ExpectedVersion <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "expectedVersion is required"})
	}

	shipping := req.ShippingAddress
	if req.AddressID > 0 && !id.IsGuest() {
		addr, err := h.addresses.GetAddress(c.Context(), id.UserID, req.AddressID)
		if err != nil {
			if errors.Is(err, address.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "address not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
		shipping = addr.Formatted()
	}

	result, err := h.service.Checkout(c.Context(), id, req.ExpectedVersion, shipping)
	if err != nil {
		return checkoutError(c, err, result)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func checkoutError(c *fiber.Ctx, err error, result Result) error {
	switch {
	case errors.Is(err, ErrGuestCheckout):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "sign in to checkout"})
	case errors.Is(err, ErrNoAddress):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "shipping address required"})
	case errors.Is(err, ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "cart is empty", "error": "empty_cart", "warnings": result.Warnings,
		})
	case errors.Is(err, cart.ErrStaleCart):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "cart changed since it was last seen", "error": "stale_cart",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
}

func (h *Handler) pay(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	orderID, err := strconv.ParseInt(c.Params("orderId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid order id"})
	}

	o, res, err := h.service.Pay(c.Context(), userID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
		case errors.Is(err, order.ErrIllegalTransition):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "order is not payable"})
		case errors.Is(err, order.ErrPaymentInFlight):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "payment already in progress"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"order": o, "payment": res})
}
