package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category groups products on the menu. Deactivating a category takes its
// products off sale without deleting them.
type Category struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string `json:"name" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=2,max=100"`
	Slug       string `json:"slug" gorm:"uniqueIndex;type:varchar(100)"`
	Active     bool   `json:"active" gorm:"default:true"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Product represents a sellable catalog item. PromoPrice only applies while
// Promotion is set; the pricing logic recomputes everything from this record
// and never trusts client-submitted prices.
type Product struct {
	ID          string           `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string           `json:"name" validate:"required,min=2,max=100"`
	Description string           `json:"description" validate:"omitempty,max=500"`
	Image       string           `json:"image" validate:"omitempty,max=500"`
	Price       decimal.Decimal  `json:"price" gorm:"type:numeric(10,2)"`
	PromoPrice  *decimal.Decimal `json:"promo_price,omitempty" gorm:"type:numeric(10,2)"`
	Promotion   bool             `json:"promotion"`
	Available   bool             `json:"available" gorm:"default:true"`
	Featured    bool             `json:"featured"`
	CategoryID  *string          `json:"category_id,omitempty" gorm:"type:varchar(36)"`
	Category    *Category        `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	gorm.Model                   // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
