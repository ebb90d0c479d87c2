package handlers

import (
	"log"

	"cantina/internal/models"
	"cantina/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CartHandler handles HTTP requests for cart pricing. The cart itself lives
// on the client; these endpoints only resolve and price it.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Post("/validate", h.HandleValidateCart)
	cartRoutes.Post("/item", h.HandlePriceItem)
	cartRoutes.Put("/item", h.HandleUpdateItem)
	cartRoutes.Post("/summary", h.HandleQuickSummary)
	cartRoutes.Delete("/", h.HandleClearCart)
}

// CartRequest carries the client's cart lines.
type CartRequest struct {
	Items []models.CartLine `json:"items"`
}

// HandleValidateCart runs the lenient validation: successfully priced lines
// come back even when other lines fail, so the client can show what is
// still orderable. Any failures switch the status to 400 with the valid
// lines attached, mirroring a partial-success response.
func (h *CartHandler) HandleValidateCart(c *fiber.Ctx) error {
	var req CartRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing cart validation request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	validation, err := h.service.Validate(req.Items)
	if err != nil {
		log.Printf("Error validating cart: %v", err)
		return respondError(c, err)
	}

	if len(validation.Errors) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Cart validation found errors",
			"errors":  validation.Errors,
			"items":   validation.Lines,
			"summary": validation.Summary,
		})
	}
	return c.JSON(fiber.Map{
		"message": "Cart validated successfully",
		"items":   validation.Lines,
		"summary": validation.Summary,
	})
}

// CartItemRequest carries a single line for the add/update endpoints.
type CartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

// HandlePriceItem prices one line for the add-to-cart flow.
func (h *CartHandler) HandlePriceItem(c *fiber.Ctx) error {
	var req CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing cart item request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.service.PriceSingle(req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("Error pricing cart item %s: %v", req.ProductID, err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product added to cart",
		"item":    item,
	})
}

// HandleUpdateItem re-prices one line after a quantity change. Quantity 0
// signals removal and returns no priced line.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing cart item update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	if req.Quantity == 0 {
		return c.JSON(fiber.Map{
			"message": "Product removed from cart",
			"action":  "removed",
		})
	}

	item, err := h.service.PriceSingle(req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("Error updating cart item %s: %v", req.ProductID, err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Cart quantity updated",
		"item":    item,
		"action":  "updated",
	})
}

// HandleQuickSummary returns the lightweight totals for the cart header.
func (h *CartHandler) HandleQuickSummary(c *fiber.Ctx) error {
	var req CartRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing cart summary request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	summary, err := h.service.QuickSummary(req.Items)
	if err != nil {
		log.Printf("Error summarizing cart: %v", err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"summary": summary})
}

// HandleClearCart acknowledges a cart reset with an empty summary.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Cart cleared successfully",
		"items":   []models.PricedLine{},
		"summary": models.CartSummary{
			Subtotal:      decimal.Zero,
			TotalDiscount: decimal.Zero,
			Total:         decimal.Zero,
		},
	})
}
