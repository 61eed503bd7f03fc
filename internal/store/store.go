// Package store provides durable persistence of product records keyed by id,
// with an atomic per-id read-modify-write primitive.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/inventory-stock-service/internal/model"
)

// Store is the single source of truth for product records. Implementations
// must serialize mutations per id: Apply completes as an indivisible unit
// with respect to any other mutation of the same record.
type Store interface {
	Create(ctx context.Context, name string, quantity int64, price decimal.Decimal) (model.Product, error)
	Get(ctx context.Context, id string) (model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	Update(ctx context.Context, id, name string, quantity int64, price decimal.Decimal) (model.Product, error)
	Apply(ctx context.Context, id string, fn func(model.Product) (model.Product, error)) (model.Product, error)
	Delete(ctx context.Context, id string) error
}

// Memory is an in-process Store. A single RWMutex guards the record map and
// the insertion-order index; Apply runs its mutation function under the
// write lock, which linearizes concurrent mutations of one id.
type Memory struct {
	mu    sync.RWMutex
	m     map[string]model.Product
	order []string
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]model.Product)}
}

func (s *Memory) Create(ctx context.Context, name string, quantity int64, price decimal.Decimal) (model.Product, error) {
	if err := model.ValidateFields(name, quantity, price); err != nil {
		return model.Product{}, err
	}
	p := model.Product{
		ID:       uuid.NewString(),
		Name:     name,
		Quantity: quantity,
		Price:    price,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[p.ID] = p
	s.order = append(s.order, p.ID)
	return p, nil
}

func (s *Memory) Get(ctx context.Context, id string) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.m[id]
	if !ok {
		return model.Product{}, model.ErrNotFound
	}
	return p, nil
}

// List returns all records in insertion order.
func (s *Memory) List(ctx context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.m[id])
	}
	return out, nil
}

func (s *Memory) Update(ctx context.Context, id, name string, quantity int64, price decimal.Decimal) (model.Product, error) {
	if err := model.ValidateFields(name, quantity, price); err != nil {
		return model.Product{}, err
	}
	return s.Apply(ctx, id, func(p model.Product) (model.Product, error) {
		p.Name = name
		p.Quantity = quantity
		p.Price = price
		return p, nil
	})
}

// Apply mutates a single record atomically. If fn returns an error the
// record is left untouched and the error is returned as-is.
func (s *Memory) Apply(ctx context.Context, id string, fn func(model.Product) (model.Product, error)) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.m[id]
	if !ok {
		return model.Product{}, model.ErrNotFound
	}
	next, err := fn(p)
	if err != nil {
		return model.Product{}, err
	}
	next.ID = p.ID
	s.m[id] = next
	return next, nil
}

func (s *Memory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.m, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
