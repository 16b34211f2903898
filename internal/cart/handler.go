package cart

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/Shubrajit22/Zestware1/internal/user"
)

// Handler wires the cart API. Every mutation takes the version the client
// last observed; responses always return the authoritative cart plus its new
// version so the client can re-sync before retrying.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.viewCart)
	app.Post("/api/v1/cart/items", h.addItem)
	app.Put("/api/v1/cart/items/:lineId<[0-9]+>", h.updateQuantity)
	app.Patch("/api/v1/cart/items/:lineId<[0-9]+>/size", h.changeSize)
	app.Delete("/api/v1/cart/items/:lineId<[0-9]+>", h.removeItem)
	app.Delete("/api/v1/cart", h.clearCart)
}

type cartResponse struct {
	Version int64  `json:"version"`
	Lines   []Line `json:"lines"`
	Total   int    `json:"total"`
}

func toResponse(c Cart) cartResponse {
	lines := c.Lines
	if lines == nil {
		lines = []Line{}
	}
	return cartResponse{Version: c.Version, Lines: lines, Total: c.Total()}
}

func (h *Handler) viewCart(c *fiber.Ctx) error {
	id, err := user.CurrentIdentity(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	view, err := h.service.View(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(view)
}

type addItemRequest struct {
	ProductID       int    `json:"productId"`
	Size            string `json:"size"`
	Quantity        int    `json:"quantity"`
	ExpectedVersion int64  `json:"expectedVersion"`
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	id, err := user.CurrentIdentity(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	payload := new(addItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProductID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productId"})
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}

	// version check is optional on add: a replayed add merges into the same
	// line instead of duplicating it
	expected := payload.ExpectedVersion
	if expected <= 0 {
		expected = AnyVersion
	}

	updated, err := h.service.AddItem(c.Context(), id, payload.ProductID, payload.Size, payload.Quantity, expected)
	if err != nil {
		return cartError(c, err)
	}
	return c.JSON(toResponse(updated))
}

type updateQuantityRequest struct {
	Quantity        int   `json:"quantity"`
	ExpectedVersion int64 `json:"expectedVersion"`
}

func (h *Handler) updateQuantity(c *fiber.Ctx) error {
	id, err := user.CurrentIdentity(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	lineID, err := strconv.ParseInt(c.Params("lineId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid lineId"})
	}

	payload := new(updateQuantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ExpectedVersion <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "expectedVersion is required"})
	}

	updated, err := h.service.UpdateQuantity(c.Context(), id, lineID, payload.Quantity, payload.ExpectedVersion)
	if err != nil {
		return cartError(c, err)
	}
	return c.JSON(toResponse(updated))
}

type changeSizeRequest struct {
	Size            string `json:"size"`
	ExpectedVersion int64  `json:"expectedVersion"`
}

func (h *Handler) changeSize(c *fiber.Ctx) error {
	id, err := user.CurrentIdentity(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	lineID, err := strconv.ParseInt(c.Params("lineId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid lineId"})
	}

	payload := new(changeSizeRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ExpectedVersion <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "expectedVersion is required"})
	}

	updated, err := h.service.ChangeSize(c.Context(), id, lineID, payload.Size, payload.ExpectedVersion)
	if err != nil {
		return cartError(c, err)
	}
	return c.JSON(toResponse(updated))
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	id, err := user.CurrentIdentity(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	lineID, err := strconv.ParseInt(c.Params("lineId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid lineId"})
	}
	expected, err := strconv.ParseInt(c.Query("expectedVersion", "0"), 10, 64)
	if err != nil || expected <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "expectedVersion is required"})
	}

	updated, err := h.service.RemoveItem(c.Context(), id, lineID, expected)
	if err != nil {
		return cartError(c, err)
	}
	return c.JSON(toResponse(updated))
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	id, err := user.CurrentIdentity(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	expected, err := strconv.ParseInt(c.Query("expectedVersion", "0"), 10, 64)
	if err != nil || expected <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "expectedVersion is required"})
	}

	updated, err := h.service.Clear(c.Context(), id, expected)
	if err != nil {
		return cartError(c, err)
	}
	return c.JSON(toResponse(updated))
}

func cartError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrStaleCart):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "cart was modified, refresh and retry", "error": "stale_cart"})
	case errors.Is(err, ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found", "error": "product_not_found"})
	case errors.Is(err, ErrVariantNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "size not available for this product", "error": "variant_not_found"})
	case errors.Is(err, ErrLineNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "cart line not found", "error": "line_not_found"})
	case errors.Is(err, ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "quantity must be at least 1", "error": "invalid_quantity"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
