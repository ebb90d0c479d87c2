package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"cantina/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// It enforces the same state guards as the GORM implementation, with the
// repository mutex standing in for row locks.
type MockOrderRepository struct {
	orders  map[string]models.Order
	counter int64
	mu      sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// GetAll returns all orders, newest first.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, order)
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList, nil
}

// GetAllByUser returns one user's orders, newest first.
func (r *MockOrderRepository) GetAllByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0)
	for _, order := range r.orders {
		if order.UserID == userID {
			orderList = append(orderList, order)
		}
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "order", ID: id}
	}
	return &order, nil
}

// Create stores the order with a fresh order number.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	r.counter++
	order.OrderNumber = fmt.Sprintf("ORD%04d", r.counter)
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// UpdateDetails changes payment method and/or notes while details are
// still mutable.
func (r *MockOrderRepository) UpdateDetails(id string, paymentMethod *models.PaymentMethod, notes *string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "order", ID: id}
	}
	if !order.DetailsMutable() {
		return nil, &models.StateConflictError{Op: "update details", Status: order.Status}
	}
	if paymentMethod != nil {
		order.PaymentMethod = *paymentMethod
	}
	if notes != nil {
		order.Notes = *notes
	}
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return &order, nil
}

// ReplaceItems swaps the item set and total while items are still mutable.
func (r *MockOrderRepository) ReplaceItems(id string, items []models.OrderItem, total decimal.Decimal) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "order", ID: id}
	}
	if !order.ItemsMutable() {
		return nil, &models.StateConflictError{Op: "replace items", Status: order.Status}
	}

	sum := decimal.Zero
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
		items[i].OrderID = id
		sum = sum.Add(items[i].Subtotal)
	}
	if !sum.Equal(total) {
		return nil, &models.ConsistencyError{
			Msg: fmt.Sprintf("order %s total %s does not match summed items %s", id, total, sum),
		}
	}

	order.Items = items
	order.Total = total
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return &order, nil
}

// UpdateStatus updates the status of an order unless it is terminal.
func (r *MockOrderRepository) UpdateStatus(id string, status models.OrderStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "order", ID: id}
	}
	if order.Status.Terminal() {
		return nil, &models.StateConflictError{Op: "change status", Status: order.Status}
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return &order, nil
}

// Stats aggregates the order-side dashboard numbers.
func (r *MockOrderRepository) Stats() (*models.OrderStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &models.OrderStats{Revenue: decimal.Zero}
	for _, order := range r.orders {
		stats.TotalOrders++
		switch order.Status {
		case models.StatusPending:
			stats.PendingOrders++
		case models.StatusDelivered:
			stats.DeliveredOrders++
			stats.Revenue = stats.Revenue.Add(order.Total)
		}
	}
	return stats, nil
}
