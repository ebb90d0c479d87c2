package repositories

import (
	"cantina/internal/models"
)

// ProductFilter enumerates the optional catalog list filters. Unset fields
// are ignored, so the zero value lists everything.
type ProductFilter struct {
	CategoryID    *string
	AvailableOnly bool
	PromotedOnly  bool
	FeaturedOnly  bool
	NameLike      string
	Limit         int
}

// ProductRepository defines the interface for catalog data access. GetByID
// resolves the category relation so callers can check category activity.
type ProductRepository interface {
	List(filter ProductFilter) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	Count() (int64, error)
}
