package services

import (
	"fmt"
	"log"

	"cantina/internal/models"
	"cantina/internal/repositories"
)

// EventPublisher publishes order lifecycle events to the message broker.
type EventPublisher interface {
	PublishJSON(routingKey string, payload interface{}) error
}

// Actor identifies the authenticated caller of a guarded operation.
type Actor struct {
	UserID string
	Role   string
}

// Admin reports whether the actor holds the admin role.
func (a Actor) Admin() bool {
	return a.Role == models.RoleAdmin
}

// CreateOrderRequest carries the client's order submission. Lines hold only
// product references and quantities; pricing is re-derived server-side.
type CreateOrderRequest struct {
	Lines         []models.CartLine    `json:"items" validate:"required,min=1,dive"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Notes         string               `json:"notes" validate:"omitempty,max=1000"`
}

// UpdateDetailsRequest carries the mutable order details. Nil fields are
// left unchanged.
type UpdateDetailsRequest struct {
	PaymentMethod *models.PaymentMethod `json:"payment_method"`
	Notes         *string               `json:"notes"`
}

// OrderService handles the order lifecycle: strict creation, guarded detail
// updates, guarded item replacement and status transitions.
type OrderService struct {
	orderRepo repositories.OrderRepository
	cart      *CartService
	events    EventPublisher // may be nil when no broker is configured
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, cart *CartService, events EventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		cart:      cart,
		events:    events,
	}
}

// CreateOrder validates every line in strict mode, then persists the order
// header and its item set as one atomic unit. Any invalid line aborts the
// whole call with no partial write. The returned order carries its resolved
// items and product snapshots.
func (s *OrderService) CreateOrder(actor Actor, req CreateOrderRequest) (*models.Order, error) {
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentCash
	}
	if !paymentMethod.Valid() {
		return nil, &models.ValidationError{Msg: fmt.Sprintf("invalid payment method: %s", paymentMethod)}
	}

	priced, total, err := s.cart.ResolveStrict(req.Lines)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:        actor.UserID,
		Total:         total,
		Status:        models.StatusPending,
		PaymentMethod: paymentMethod,
		Notes:         req.Notes,
		Items:         orderItems(priced),
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}

	s.publish("order.created", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"status":       order.Status,
		"total":        order.Total,
	})

	return s.orderRepo.GetByID(order.ID)
}

// orderItems freezes priced lines into persistent line items.
func orderItems(priced []models.PricedLine) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(priced))
	for _, line := range priced {
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
			Subtotal:  line.Subtotal,
		})
	}
	return items
}

// GetOrder retrieves one order, visible only to its owner or an admin.
func (s *OrderService) GetOrder(actor Actor, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, order, "view"); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns the actor's own orders, or every order for an admin.
func (s *OrderService) ListOrders(actor Actor) ([]models.Order, error) {
	if actor.Admin() {
		return s.orderRepo.GetAll()
	}
	return s.orderRepo.GetAllByUser(actor.UserID)
}

// UpdateDetails changes payment method and/or notes. Permitted for the
// owner or an admin, and only while the order is pending or confirmed; the
// authorization check runs before the state check.
func (s *OrderService) UpdateDetails(actor Actor, id string, req UpdateDetailsRequest) (*models.Order, error) {
	if req.PaymentMethod != nil && !req.PaymentMethod.Valid() {
		return nil, &models.ValidationError{Msg: fmt.Sprintf("invalid payment method: %s", *req.PaymentMethod)}
	}

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, order, "modify"); err != nil {
		return nil, err
	}
	return s.orderRepo.UpdateDetails(id, req.PaymentMethod, req.Notes)
}

// ReplaceItems re-validates the new lines in strict mode, then swaps the
// order's item set and total atomically. Owner or admin only, pending only.
func (s *OrderService) ReplaceItems(actor Actor, id string, lines []models.CartLine) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, order, "modify the items of"); err != nil {
		return nil, err
	}

	priced, total, err := s.cart.ResolveStrict(lines)
	if err != nil {
		return nil, err
	}
	return s.orderRepo.ReplaceItems(id, orderItems(priced), total)
}

// UpdateStatus moves the order to a new status. Admin only; transitions
// away from a terminal status are rejected by the store.
func (s *OrderService) UpdateStatus(actor Actor, id string, status models.OrderStatus) (*models.Order, error) {
	if !actor.Admin() {
		return nil, &models.AuthorizationError{Msg: "only administrators can change order status"}
	}
	if !status.Valid() {
		return nil, &models.ValidationError{Msg: fmt.Sprintf("invalid order status: %s", status)}
	}

	order, err := s.orderRepo.UpdateStatus(id, status)
	if err != nil {
		return nil, err
	}

	s.publish("order.status_changed", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"status":       order.Status,
	})
	return order, nil
}

// authorize rejects actors that are neither the order's owner nor an admin.
func authorize(actor Actor, order *models.Order, op string) error {
	if order.OwnedBy(actor.UserID) || actor.Admin() {
		return nil
	}
	return &models.AuthorizationError{Msg: fmt.Sprintf("not authorized to %s this order", op)}
}

// publish sends an event to the broker, logging instead of failing the
// operation when publication is impossible. The order is already committed
// by the time events go out.
func (s *OrderService) publish(routingKey string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(routingKey, payload); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
