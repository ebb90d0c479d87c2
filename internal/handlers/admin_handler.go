package handlers

import (
	"log"

	"cantina/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles the admin dashboard endpoints.
type AdminHandler struct {
	service *services.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *services.AdminService) *AdminHandler {
	return &AdminHandler{
		service: service,
	}
}

// RegisterRoutes registers the admin routes. The caller is expected to gate
// the router group with the admin middleware.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	adminRoutes := router.Group("/admin")
	adminRoutes.Get("/dashboard", h.HandleDashboard)
}

// HandleDashboard returns the store-wide statistics.
func (h *AdminHandler) HandleDashboard(c *fiber.Ctx) error {
	stats, err := h.service.DashboardStats()
	if err != nil {
		log.Printf("Error loading dashboard stats: %v", err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"stats": stats})
}
