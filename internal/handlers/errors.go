package handlers

import (
	"errors"
	"fmt"

	"cantina/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondError maps domain error kinds to HTTP statuses. Retryable
// persistence failures get 503 so clients know a retry may succeed.
func respondError(c *fiber.Ctx, err error) error {
	var (
		validation  *models.ValidationError
		notFound    *models.NotFoundError
		unavailable *models.UnavailableError
		authz       *models.AuthorizationError
		stateErr    *models.StateConflictError
		persistence *models.PersistenceError
		consistency *models.ConsistencyError
	)

	switch {
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": err.Error(),
		})
	case errors.As(err, &unavailable):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Item unavailable",
			"error":   err.Error(),
		})
	case errors.As(err, &authz):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": err.Error(),
		})
	case errors.As(err, &stateErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": err.Error(),
		})
	case errors.As(err, &persistence):
		status := fiber.StatusInternalServerError
		if persistence.Retryable {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"message":   "Storage failure",
			"error":     err.Error(),
			"retryable": persistence.Retryable,
		})
	case errors.As(err, &consistency):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal consistency failure",
			"error":   err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
			"error":   err.Error(),
		})
	}
}

// validationMessages flattens validator errors into a field → message map.
func validationMessages(err error) map[string]string {
	messages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			messages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return messages
}
