package services

import (
	"fmt"

	"cantina/internal/models"

	"github.com/shopspring/decimal"
)

// Quantity bounds for a single cart line.
const (
	MinQuantity = 1
	MaxQuantity = 50
)

var oneHundred = decimal.NewFromInt(100)

// PriceLine derives a priced line from the current catalog record. The
// effective unit price is the promotional price when the promotion is active
// and a promotional price is set, otherwise the base price. Discount figures
// are always recomputed from the base price here; client-supplied prices are
// never consulted.
//
// Deterministic, no side effects, no I/O.
func PriceLine(product *models.Product, quantity int) (*models.PricedLine, error) {
	if quantity < MinQuantity {
		return nil, &models.ValidationError{
			Msg: fmt.Sprintf("quantity for product %s must be at least %d", product.ID, MinQuantity),
		}
	}
	if quantity > MaxQuantity {
		return nil, &models.ValidationError{
			Msg: fmt.Sprintf("quantity for product %s cannot exceed %d units", product.ID, MaxQuantity),
		}
	}
	if !product.Available {
		return nil, &models.UnavailableError{
			Msg: fmt.Sprintf("product not available: %s", product.Name),
		}
	}
	if product.Category != nil && !product.Category.Active {
		return nil, &models.UnavailableError{
			Msg: fmt.Sprintf("the category of product %s is not available", product.Name),
		}
	}

	effective := product.Price
	if product.Promotion && product.PromoPrice != nil {
		effective = *product.PromoPrice
	}

	qty := decimal.NewFromInt(int64(quantity))
	subtotal := effective.Mul(qty)
	originalSubtotal := product.Price.Mul(qty)

	// A promotional price above the base price is a catalog data bug; the
	// line is still priced at the effective price but reported undiscounted.
	discounted := product.Promotion && effective.LessThan(product.Price)

	discount := decimal.Zero
	var discountPercent int64
	if discounted {
		discount = originalSubtotal.Sub(subtotal)
		if product.Price.IsPositive() {
			discountPercent = product.Price.Sub(effective).
				Div(product.Price).Mul(oneHundred).Round(0).IntPart()
		}
	}

	return &models.PricedLine{
		ProductID:        product.ID,
		Name:             product.Name,
		Description:      product.Description,
		Image:            product.Image,
		Price:            effective,
		OriginalPrice:    product.Price,
		Quantity:         quantity,
		Promotion:        product.Promotion,
		Subtotal:         subtotal,
		OriginalSubtotal: originalSubtotal,
		Discount:         discount,
		DiscountPercent:  discountPercent,
	}, nil
}
