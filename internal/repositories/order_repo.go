package repositories

import (
	"cantina/internal/models"

	"github.com/shopspring/decimal"
)

// OrderRepository defines the interface for order data access.
//
// Create, ReplaceItems, UpdateDetails and UpdateStatus are each a single
// atomic unit of work: either every write commits or none do. The state
// guards (items mutable only while pending, details only while pending or
// confirmed, no transition away from a terminal status) are re-checked
// inside the transaction with the order row locked, so a competing call
// cannot slip between the caller's read and the write.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetAllByUser(userID string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	UpdateDetails(id string, paymentMethod *models.PaymentMethod, notes *string) (*models.Order, error)
	ReplaceItems(id string, items []models.OrderItem, total decimal.Decimal) (*models.Order, error)
	UpdateStatus(id string, status models.OrderStatus) (*models.Order, error)
	Stats() (*models.OrderStats, error)
}
