package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cantina/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// txTimeout bounds every order transaction. The context is derived from
// Background rather than the request, so a cancelled request still lets an
// in-flight transaction run to its natural commit or rollback instead of
// abandoning it with rows locked.
const txTimeout = 5 * time.Second

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// transact runs fn inside a single bounded transaction and normalizes the
// returned error.
func (r *GORMOrderRepository) transact(fn func(tx *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(fn)
	return wrapPersistence(err)
}

// wrapPersistence passes domain errors through untouched and wraps anything
// else as a PersistenceError, marking timeouts retryable.
func wrapPersistence(err error) error {
	if err == nil {
		return nil
	}
	var (
		notFound    *models.NotFoundError
		stateErr    *models.StateConflictError
		consistency *models.ConsistencyError
		validation  *models.ValidationError
	)
	if errors.As(err, &notFound) || errors.As(err, &stateErr) ||
		errors.As(err, &consistency) || errors.As(err, &validation) {
		return err
	}
	retryable := errors.Is(err, context.DeadlineExceeded)
	return &models.PersistenceError{Err: err, Retryable: retryable}
}

// GetAll retrieves all orders, newest first.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("User").Preload("Items").Preload("Items.Product").
		Order("created_at DESC").Find(&orders).Error
	if err != nil {
		return nil, &models.PersistenceError{Err: fmt.Errorf("failed to get all orders: %w", err)}
	}
	return orders, nil
}

// GetAllByUser retrieves one user's orders, newest first.
func (r *GORMOrderRepository) GetAllByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").Find(&orders).Error
	if err != nil {
		return nil, &models.PersistenceError{Err: fmt.Errorf("failed to get orders for user %s: %w", userID, err)}
	}
	return orders, nil
}

// GetByID retrieves an order with its items, products and owner.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("User").Preload("Items").Preload("Items.Product").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Resource: "order", ID: id}
		}
		return nil, &models.PersistenceError{Err: fmt.Errorf("failed to get order by ID %s: %w", id, err)}
	}
	return &order, nil
}

// Create persists the order header and its full item set as one unit of
// work and assigns the order number from the locked counter row. If any
// insert fails the whole transaction rolls back, leaving no header without
// items.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}

	return r.transact(func(tx *gorm.DB) error {
		number, err := nextOrderNumber(tx)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
}

// nextOrderNumber increments the counter row under a row lock and formats
// the order number. Replaces a count-rows-then-format scheme, which races
// under concurrent creations.
func nextOrderNumber(tx *gorm.DB) (string, error) {
	var counter models.OrderCounter
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(models.OrderCounter{ID: 1}).
		FirstOrCreate(&counter).Error
	if err != nil {
		return "", fmt.Errorf("failed to load order counter: %w", err)
	}

	counter.Value++
	if err := tx.Model(&models.OrderCounter{}).Where("id = ?", 1).
		Update("value", counter.Value).Error; err != nil {
		return "", fmt.Errorf("failed to advance order counter: %w", err)
	}
	return fmt.Sprintf("ORD%04d", counter.Value), nil
}

// UpdateDetails changes payment method and/or notes. The order row is
// locked and the state guard re-checked inside the transaction.
func (r *GORMOrderRepository) UpdateDetails(id string, paymentMethod *models.PaymentMethod, notes *string) (*models.Order, error) {
	err := r.transact(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}
		if !order.DetailsMutable() {
			return &models.StateConflictError{Op: "update details", Status: order.Status}
		}

		updates := map[string]interface{}{}
		if paymentMethod != nil {
			updates["payment_method"] = *paymentMethod
		}
		if notes != nil {
			updates["notes"] = *notes
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order details: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// ReplaceItems discards the existing item set, writes the new one and
// updates the total, all inside one transaction. The delete-then-insert
// sequence is never observable: any failure rolls the order back to its
// pre-call items and total. Before committing, the persisted items are
// re-read and summed against the new total; a mismatch aborts with a
// ConsistencyError.
func (r *GORMOrderRepository) ReplaceItems(id string, items []models.OrderItem, total decimal.Decimal) (*models.Order, error) {
	err := r.transact(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}
		if !order.ItemsMutable() {
			return &models.StateConflictError{Op: "replace items", Status: order.Status}
		}

		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear order items: %w", err)
		}

		for i := range items {
			if items[i].ID == "" {
				items[i].ID = uuid.New().String()
			}
			items[i].OrderID = id
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to insert order items: %w", err)
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", id).
			Update("total", total).Error; err != nil {
			return fmt.Errorf("failed to update order total: %w", err)
		}

		var persisted []models.OrderItem
		if err := tx.Find(&persisted, "order_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to re-read order items: %w", err)
		}
		sum := decimal.Zero
		for _, item := range persisted {
			sum = sum.Add(item.Subtotal)
		}
		if !sum.Equal(total) {
			return &models.ConsistencyError{
				Msg: fmt.Sprintf("order %s total %s does not match summed items %s", id, total, sum),
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// UpdateStatus writes the new status after re-checking terminal-state
// immutability under the row lock.
func (r *GORMOrderRepository) UpdateStatus(id string, status models.OrderStatus) (*models.Order, error) {
	err := r.transact(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, id)
		if err != nil {
			return err
		}
		if order.Status.Terminal() {
			return &models.StateConflictError{Op: "change status", Status: order.Status}
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", id).
			Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// lockOrder loads the order header with a row-level lock held for the rest
// of the transaction.
func lockOrder(tx *gorm.DB, id string) (*models.Order, error) {
	var order models.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Resource: "order", ID: id}
		}
		return nil, fmt.Errorf("failed to lock order %s: %w", id, err)
	}
	return &order, nil
}

// Stats aggregates the order-side dashboard numbers.
func (r *GORMOrderRepository) Stats() (*models.OrderStats, error) {
	stats := &models.OrderStats{Revenue: decimal.Zero}

	if err := r.db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, &models.PersistenceError{Err: fmt.Errorf("failed to count orders: %w", err)}
	}
	if err := r.db.Model(&models.Order{}).Where("status = ?", models.StatusPending).
		Count(&stats.PendingOrders).Error; err != nil {
		return nil, &models.PersistenceError{Err: fmt.Errorf("failed to count pending orders: %w", err)}
	}
	if err := r.db.Model(&models.Order{}).Where("status = ?", models.StatusDelivered).
		Count(&stats.DeliveredOrders).Error; err != nil {
		return nil, &models.PersistenceError{Err: fmt.Errorf("failed to count delivered orders: %w", err)}
	}

	var revenue decimal.NullDecimal
	err := r.db.Model(&models.Order{}).Where("status = ?", models.StatusDelivered).
		Select("SUM(total)").Scan(&revenue).Error
	if err != nil {
		return nil, &models.PersistenceError{Err: fmt.Errorf("failed to sum revenue: %w", err)}
	}
	if revenue.Valid {
		stats.Revenue = revenue.Decimal
	}
	return stats, nil
}
