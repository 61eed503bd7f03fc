// Package model defines domain types used by the service.
package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LowStockThreshold is the fixed policy bound below which a product counts
// as low stock.
const LowStockThreshold = 5

func init() {
	// The UI consumes price as a plain JSON number.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents one catalog entry with its current stock level.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// LowStock reports whether the product is below the low-stock threshold.
func (p Product) LowStock() bool { return p.Quantity < LowStockThreshold }

// ValidateFields checks caller-supplied product fields.
func ValidateFields(name string, quantity int64, price decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if quantity < 0 {
		return &ValidationError{Field: "quantity", Reason: "must be >= 0"}
	}
	if price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must be >= 0"}
	}
	return nil
}

// Summary aggregates the catalog the same way the inventory dashboard does.
type Summary struct {
	TotalProducts  int             `json:"total_products"`
	TotalStock     int64           `json:"total_stock"`
	LowStockCount  int             `json:"low_stock_count"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
}
