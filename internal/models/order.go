package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a member of the status enumeration.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// PaymentMethod is how the customer intends to pay at pickup.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentQR   PaymentMethod = "qr"
)

// Valid reports whether m is a member of the payment method enumeration.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentQR:
		return true
	}
	return false
}

// Order represents a customer order. Total always equals the sum of its
// item subtotals; both only change together through the item replacement
// operation.
type Order struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID        string          `json:"user_id" gorm:"type:varchar(36);index"`
	User          *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	OrderNumber   string          `json:"order_number" gorm:"uniqueIndex;type:varchar(20)"`
	Total         decimal.Decimal `json:"total" gorm:"type:numeric(10,2)"`
	Status        OrderStatus     `json:"status" gorm:"type:varchar(20);default:pending"`
	PaymentMethod PaymentMethod   `json:"payment_method" gorm:"type:varchar(20);default:cash"`
	Notes         string          `json:"notes" gorm:"type:text"`
	Items         []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DetailsMutable reports whether payment method and notes may still change.
func (o *Order) DetailsMutable() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// ItemsMutable reports whether the line items may still be replaced. Stricter
// than DetailsMutable: once preparation starts the item set is frozen.
func (o *Order) ItemsMutable() bool {
	return o.Status == StatusPending
}

// OwnedBy reports whether the order belongs to the given user.
func (o *Order) OwnedBy(userID string) bool {
	return o.UserID == userID
}

// OrderItem is one line of an order. Price is the unit price frozen at order
// time; later catalog price changes do not touch it. Items are always written
// and replaced as a full set, never patched individually.
type OrderItem struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string          `json:"order_id" gorm:"type:varchar(36);index"`
	ProductID string          `json:"product_id" gorm:"type:varchar(36)"`
	Product   *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(10,2)"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"type:numeric(10,2)"`
}

// OrderCounter backs the order number sequence. A single row is incremented
// under a row lock inside the creation transaction, so concurrent creations
// can never be handed the same number.
type OrderCounter struct {
	ID    int   `gorm:"primaryKey"`
	Value int64 `gorm:"not null;default:0"`
}

// TableName overrides the default pluralization.
func (OrderCounter) TableName() string {
	return "order_counters"
}

// OrderStats is the order-side slice of the admin dashboard.
type OrderStats struct {
	TotalOrders     int64           `json:"total_orders"`
	PendingOrders   int64           `json:"pending_orders"`
	DeliveredOrders int64           `json:"delivered_orders"`
	Revenue         decimal.Decimal `json:"revenue"`
}

// DashboardStats aggregates counts across the store for the admin dashboard.
type DashboardStats struct {
	TotalUsers        int64           `json:"total_users"`
	TotalProducts     int64           `json:"total_products"`
	TotalOrders       int64           `json:"total_orders"`
	PendingOrders     int64           `json:"pending_orders"`
	DeliveredOrders   int64           `json:"delivered_orders"`
	Revenue           decimal.Decimal `json:"revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}
