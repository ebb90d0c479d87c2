package models

import "github.com/shopspring/decimal"

// CartLine is a client-submitted (product, quantity) pair. It is never
// persisted; any price the client attaches is ignored.
type CartLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=50"`
}

// PricedLine is a CartLine resolved against the current catalog record.
// Name, description and image are snapshotted at pricing time.
type PricedLine struct {
	ProductID        string          `json:"product_id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Image            string          `json:"image,omitempty"`
	Price            decimal.Decimal `json:"price"` // effective unit price
	OriginalPrice    decimal.Decimal `json:"original_price"`
	Quantity         int             `json:"quantity"`
	Promotion        bool            `json:"promotion"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	OriginalSubtotal decimal.Decimal `json:"original_subtotal"`
	Discount         decimal.Decimal `json:"discount"`
	DiscountPercent  int64           `json:"discount_percent"`
}

// CartSummary aggregates a set of priced lines.
type CartSummary struct {
	Subtotal      decimal.Decimal `json:"subtotal"` // before discounts
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Total         decimal.Decimal `json:"total"`
	LineCount     int             `json:"line_count"`
	ProductCount  int             `json:"product_count"` // sum of quantities
	PromotedLines int             `json:"promoted_lines"`
}

// CartValidation is the lenient validation result: lines that priced
// successfully plus the failure messages of those that did not. Callers
// decide whether failures block checkout or only warn.
type CartValidation struct {
	Lines   []PricedLine `json:"lines"`
	Errors  []string     `json:"errors,omitempty"`
	Summary CartSummary  `json:"summary"`
}

// QuickSummary is the lightweight cart header counter. Unresolvable lines
// are skipped rather than reported.
type QuickSummary struct {
	LineCount    int             `json:"line_count"`
	ProductCount int             `json:"product_count"`
	Total        decimal.Decimal `json:"total"`
}
