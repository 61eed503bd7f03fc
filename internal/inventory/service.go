// Package inventory enforces the business rules of the catalog: field
// validation, the atomic sell transaction and the low-stock query.
package inventory

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/inventory-stock-service/internal/journal"
	"github.com/fairyhunter13/inventory-stock-service/internal/model"
	"github.com/fairyhunter13/inventory-stock-service/internal/store"
)

// Service applies business rules on top of a store.Store. It holds no
// product state of its own; every operation reads current state through the
// store immediately before mutating it.
type Service struct {
	store   store.Store
	journal *journal.Manager
}

// New constructs a Service. jm may be nil, in which case mutations are not
// journaled.
func New(st store.Store, jm *journal.Manager) *Service {
	return &Service{store: st, journal: jm}
}

func (s *Service) record(kind journal.Kind, productID string, quantity int64) {
	if s.journal != nil {
		s.journal.Record(kind, productID, quantity)
	}
}

// AddProduct validates the fields and creates a new product. The record is
// visible to subsequent list and get calls immediately.
func (s *Service) AddProduct(ctx context.Context, name string, quantity int64, price decimal.Decimal) (model.Product, error) {
	if err := model.ValidateFields(name, quantity, price); err != nil {
		return model.Product{}, err
	}
	p, err := s.store.Create(ctx, name, quantity, price)
	if err != nil {
		return model.Product{}, err
	}
	s.record(journal.KindProductCreated, p.ID, p.Quantity)
	return p, nil
}

// UpdateProduct replaces all mutable fields of an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id, name string, quantity int64, price decimal.Decimal) (model.Product, error) {
	if err := model.ValidateFields(name, quantity, price); err != nil {
		return model.Product{}, err
	}
	p, err := s.store.Update(ctx, id, name, quantity, price)
	if err != nil {
		return model.Product{}, err
	}
	s.record(journal.KindProductUpdated, p.ID, p.Quantity)
	return p, nil
}

// DeleteProduct removes a product. Deleting an id that does not exist (or
// was already deleted) fails with ErrNotFound.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.record(journal.KindProductDeleted, id, 0)
	return nil
}

// Sell atomically decrements a product's quantity by amount. The stock check
// and the decrement happen inside one store.Apply call, so two concurrent
// sells can never both pass the check against a stale quantity.
func (s *Service) Sell(ctx context.Context, id string, amount int64) (model.Product, error) {
	if amount <= 0 {
		return model.Product{}, &model.ValidationError{Field: "amount", Reason: "must be a positive integer"}
	}
	p, err := s.store.Apply(ctx, id, func(p model.Product) (model.Product, error) {
		if amount > p.Quantity {
			return p, &model.InsufficientStockError{ID: p.ID, Requested: amount, Available: p.Quantity}
		}
		p.Quantity -= amount
		return p, nil
	})
	if err != nil {
		var ise *model.InsufficientStockError
		if errors.As(err, &ise) {
			s.record(journal.KindSellRejected, id, amount)
		}
		return model.Product{}, err
	}
	s.record(journal.KindProductSold, p.ID, amount)
	return p, nil
}

// Product returns a single product by id.
func (s *Service) Product(ctx context.Context, id string) (model.Product, error) {
	return s.store.Get(ctx, id)
}

// Products returns the whole catalog in insertion order.
func (s *Service) Products(ctx context.Context) ([]model.Product, error) {
	return s.store.List(ctx)
}

// LowStock returns, in store order, every product below the low-stock
// threshold.
func (s *Service) LowStock(ctx context.Context) ([]model.Product, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Product, 0)
	for _, p := range all {
		if p.LowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

// Summary computes the dashboard aggregates over the whole catalog.
func (s *Service) Summary(ctx context.Context) (model.Summary, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return model.Summary{}, err
	}
	sum := model.Summary{TotalProducts: len(all), InventoryValue: decimal.Zero}
	for _, p := range all {
		sum.TotalStock += p.Quantity
		if p.LowStock() {
			sum.LowStockCount++
		}
		sum.InventoryValue = sum.InventoryValue.Add(p.Price.Mul(decimal.NewFromInt(p.Quantity)))
	}
	return sum, nil
}
