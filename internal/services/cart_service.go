package services

import (
	"sync"

	"cantina/internal/models"
	"cantina/internal/repositories"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// CartService resolves and prices cart lines against the catalog.
type CartService struct {
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		productRepo: productRepo,
	}
}

// resolveLine looks up one product and prices the line against it.
func (s *CartService) resolveLine(line models.CartLine) (*models.PricedLine, error) {
	product, err := s.productRepo.GetByID(line.ProductID)
	if err != nil {
		return nil, err
	}
	return PriceLine(product, line.Quantity)
}

// Validate resolves every line independently and concurrently. One line's
// failure does not abort the others: a cart with one invalid line still
// shows the user what is valid. Failure messages are returned as data, not
// raised; callers decide whether they block checkout or only warn.
func (s *CartService) Validate(lines []models.CartLine) (*models.CartValidation, error) {
	if len(lines) == 0 {
		return nil, &models.ValidationError{Msg: "the cart is empty"}
	}

	priced := make([]*models.PricedLine, len(lines))
	failures := make([]string, len(lines))

	var wg sync.WaitGroup
	for i, line := range lines {
		wg.Add(1)
		go func(i int, line models.CartLine) {
			defer wg.Done()
			result, err := s.resolveLine(line)
			if err != nil {
				failures[i] = err.Error()
				return
			}
			priced[i] = result
		}(i, line)
	}
	wg.Wait()

	validation := &models.CartValidation{
		Lines: make([]models.PricedLine, 0, len(lines)),
		Summary: models.CartSummary{
			Subtotal:      decimal.Zero,
			TotalDiscount: decimal.Zero,
			Total:         decimal.Zero,
		},
	}
	for i := range lines {
		if priced[i] == nil {
			validation.Errors = append(validation.Errors, failures[i])
			continue
		}
		line := *priced[i]
		validation.Lines = append(validation.Lines, line)
		validation.Summary.Subtotal = validation.Summary.Subtotal.Add(line.OriginalSubtotal)
		validation.Summary.TotalDiscount = validation.Summary.TotalDiscount.Add(line.Discount)
		validation.Summary.Total = validation.Summary.Total.Add(line.Subtotal)
		validation.Summary.ProductCount += line.Quantity
		if line.Promotion {
			validation.Summary.PromotedLines++
		}
	}
	validation.Summary.LineCount = len(validation.Lines)
	return validation, nil
}

// ResolveStrict prices every line, failing the whole batch on the first
// invalid one. This is the all-or-nothing mode the order paths use.
func (s *CartService) ResolveStrict(lines []models.CartLine) ([]models.PricedLine, decimal.Decimal, error) {
	if len(lines) == 0 {
		return nil, decimal.Zero, &models.ValidationError{Msg: "at least one item is required"}
	}

	priced := make([]models.PricedLine, len(lines))
	var g errgroup.Group
	for i, line := range lines {
		g.Go(func() error {
			result, err := s.resolveLine(line)
			if err != nil {
				return err
			}
			priced[i] = *result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, decimal.Zero, err
	}

	total := decimal.Zero
	for _, line := range priced {
		total = total.Add(line.Subtotal)
	}
	return priced, total, nil
}

// PriceSingle prices one line for the add-to-cart and update-quantity
// endpoints.
func (s *CartService) PriceSingle(productID string, quantity int) (*models.PricedLine, error) {
	return s.resolveLine(models.CartLine{ProductID: productID, Quantity: quantity})
}

// QuickSummary totals the resolvable lines and silently skips the rest.
// Meant for the cart header counter, where speed beats completeness.
func (s *CartService) QuickSummary(lines []models.CartLine) (*models.QuickSummary, error) {
	summary := &models.QuickSummary{Total: decimal.Zero, LineCount: len(lines)}
	if len(lines) == 0 {
		return summary, nil
	}

	priced := make([]*models.PricedLine, len(lines))
	var wg sync.WaitGroup
	for i, line := range lines {
		wg.Add(1)
		go func(i int, line models.CartLine) {
			defer wg.Done()
			result, err := s.resolveLine(line)
			if err != nil {
				return
			}
			priced[i] = result
		}(i, line)
	}
	wg.Wait()

	for _, line := range priced {
		if line == nil {
			continue
		}
		summary.Total = summary.Total.Add(line.Subtotal)
		summary.ProductCount += line.Quantity
	}
	return summary, nil
}
