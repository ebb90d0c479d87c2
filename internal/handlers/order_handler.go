package handlers

import (
	"log"

	"cantina/internal/models"
	"cantina/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app. All of them
// sit behind the auth middleware; the status route additionally requires
// the admin role, enforced in the service.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Put("/:id/details", h.HandleUpdateDetails)
	orderRoutes.Put("/:id/items", h.HandleReplaceItems)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
}

// HandleListOrders returns the caller's orders, or every order for admins.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(actorFromCtx(c))
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"count":  len(orders),
		"orders": orders,
	})
}

// HandleGetOrderByID retrieves a single order, owner or admin only.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrder(actorFromCtx(c), orderID)
	if err != nil {
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"order": order})
}

// HandleCreateOrder creates a new order from cart lines. Validation is
// strict: any invalid line fails the whole request with nothing written.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create order request body: %v", err)
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

	order, err := h.service.CreateOrder(actorFromCtx(c), req)
	if err != nil {
		log.Printf("Error creating order: %v", err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created successfully",
		"order":   order,
	})
}

// HandleUpdateDetails changes payment method and/or notes on an order that
// is still pending or confirmed.
func (h *OrderHandler) HandleUpdateDetails(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req services.UpdateDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update details request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	order, err := h.service.UpdateDetails(actorFromCtx(c), orderID, req)
	if err != nil {
		log.Printf("Error updating details for order %s: %v", orderID, err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order details updated successfully",
		"order":   order,
	})
}

// ReplaceItemsRequest carries the full replacement item set.
type ReplaceItemsRequest struct {
	Items []models.CartLine `json:"items" validate:"required,min=1,dive"`
}

// HandleReplaceItems swaps an order's item set and recomputes its total.
// Only legal while the order is pending.
func (h *OrderHandler) HandleReplaceItems(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req ReplaceItemsRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing replace items request body: %v", err)
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

	order, err := h.service.ReplaceItems(actorFromCtx(c), orderID, req.Items)
	if err != nil {
		log.Printf("Error replacing items for order %s: %v", orderID, err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order items replaced and total recomputed successfully",
		"order":   order,
	})
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var updateData struct {
		Status models.OrderStatus `json:"status"`
	}

	if err := c.BodyParser(&updateData); err != nil {
		log.Printf("Error parsing request body for status update: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}

	if updateData.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for order status update.",
		})
	}

	order, err := h.service.UpdateStatus(actorFromCtx(c), orderID, updateData.Status)
	if err != nil {
		log.Printf("Error updating order status for order %s: %v", orderID, err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Order status updated successfully",
		"order":   order,
	})
}
