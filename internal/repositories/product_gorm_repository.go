package repositories

import (
	"errors"
	"fmt"

	"cantina/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// List retrieves products matching the typed filter.
func (r *GORMProductRepository) List(filter ProductFilter) ([]models.Product, error) {
	query := r.db.Preload("Category")

	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.AvailableOnly {
		query = query.Where("available = ?", true)
	}
	if filter.PromotedOnly {
		query = query.Where("promotion = ?", true)
	}
	if filter.FeaturedOnly {
		query = query.Where("featured = ?", true)
	}
	if filter.NameLike != "" {
		query = query.Where("name LIKE ?", "%"+filter.NameLike+"%")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, &models.PersistenceError{Err: fmt.Errorf("failed to list products: %w", err)}
	}
	return products, nil
}

// GetByID retrieves a single product with its category from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Resource: "product", ID: id}
		}
		return nil, &models.PersistenceError{Err: fmt.Errorf("failed to get product by ID %s: %w", id, err)}
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return &models.PersistenceError{Err: fmt.Errorf("failed to create product: %w", err)}
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product) // Save will update all fields, including zero values
	if res.Error != nil {
		return &models.PersistenceError{Err: fmt.Errorf("failed to update product: %w", res.Error)}
	}
	if res.RowsAffected == 0 {
		// GORM's Save doesn't return ErrRecordNotFound if no rows affected
		// for an update, so we check RowsAffected.
		return &models.NotFoundError{Resource: "product", ID: product.ID}
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return &models.PersistenceError{Err: fmt.Errorf("failed to delete product: %w", res.Error)}
	}
	if res.RowsAffected == 0 {
		return &models.NotFoundError{Resource: "product", ID: id}
	}
	return nil
}

// Count returns the number of products in the catalog.
func (r *GORMProductRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, &models.PersistenceError{Err: fmt.Errorf("failed to count products: %w", err)}
	}
	return count, nil
}
