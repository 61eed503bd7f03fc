package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/inventory-stock-service/internal/model"
)

// Postgres persists products in a single table with a version column for
// optimistic concurrency. Apply re-reads the row, runs the mutation and
// writes it back guarded by the observed version; a concurrent writer makes
// the guarded update affect zero rows, and the attempt is retried.
type Postgres struct {
	db       *sql.DB
	sq       squirrel.StatementBuilderType
	attempts int
}

// NewPostgres wraps an open database handle. attempts bounds the optimistic
// retries of Apply before the operation fails with ErrStoreUnavailable.
func NewPostgres(db *sql.DB, attempts int) *Postgres {
	if attempts <= 0 {
		attempts = 3
	}
	return &Postgres{
		db:       db,
		sq:       squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		attempts: attempts,
	}
}

// EnsureSchema creates the products table if it does not exist. The position
// sequence preserves insertion order for List.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			product_id TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			quantity   BIGINT NOT NULL CHECK (quantity >= 0),
			price      NUMERIC NOT NULL CHECK (price >= 0),
			version    BIGINT NOT NULL DEFAULT 1,
			position   BIGSERIAL
		)`)
	if err != nil {
		return fmt.Errorf("creating products table: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, name string, quantity int64, price decimal.Decimal) (model.Product, error) {
	if err := model.ValidateFields(name, quantity, price); err != nil {
		return model.Product{}, err
	}
	p := model.Product{
		ID:       uuid.NewString(),
		Name:     name,
		Quantity: quantity,
		Price:    price,
	}
	_, err := s.sq.Insert("products").
		SetMap(map[string]interface{}{
			"product_id": p.ID,
			"name":       p.Name,
			"quantity":   p.Quantity,
			"price":      p.Price,
		}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return model.Product{}, unavailable("inserting product", err)
	}
	return p, nil
}

func (s *Postgres) Get(ctx context.Context, id string) (model.Product, error) {
	p, _, err := s.getWithVersion(ctx, id)
	return p, err
}

func (s *Postgres) getWithVersion(ctx context.Context, id string) (model.Product, int64, error) {
	row := s.sq.Select("product_id", "name", "quantity", "price", "version").
		From("products").
		Where(squirrel.Eq{"product_id": id}).
		RunWith(s.db).
		QueryRowContext(ctx)
	var p model.Product
	var version int64
	if err := row.Scan(&p.ID, &p.Name, &p.Quantity, &p.Price, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Product{}, 0, model.ErrNotFound
		}
		return model.Product{}, 0, unavailable("selecting product", err)
	}
	return p, version, nil
}

func (s *Postgres) List(ctx context.Context) ([]model.Product, error) {
	rows, err := s.sq.Select("product_id", "name", "quantity", "price").
		From("products").
		OrderBy("position ASC").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, unavailable("listing products", err)
	}
	defer rows.Close()
	out := make([]model.Product, 0)
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity, &p.Price); err != nil {
			return nil, unavailable("scanning product row", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating product rows", err)
	}
	return out, nil
}

func (s *Postgres) Update(ctx context.Context, id, name string, quantity int64, price decimal.Decimal) (model.Product, error) {
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

func (s *Postgres) Apply(ctx context.Context, id string, fn func(model.Product) (model.Product, error)) (model.Product, error) {
	for attempt := 0; attempt < s.attempts; attempt++ {
		p, version, err := s.getWithVersion(ctx, id)
		if err != nil {
			return model.Product{}, err
		}
		next, err := fn(p)
		if err != nil {
			return model.Product{}, err
		}
		next.ID = p.ID
		res, err := s.sq.Update("products").
			SetMap(map[string]interface{}{
				"name":     next.Name,
				"quantity": next.Quantity,
				"price":    next.Price,
				"version":  version + 1,
			}).
			Where(squirrel.Eq{"product_id": id, "version": version}).
			RunWith(s.db).
			ExecContext(ctx)
		if err != nil {
			return model.Product{}, unavailable("executing guarded update", err)
		}
		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return model.Product{}, unavailable("getting affected rows", err)
		}
		if rowsAffected == 1 {
			return next, nil
		}
		// version conflict: another writer got in between; re-read and retry
	}
	return model.Product{}, fmt.Errorf("apply on product %s: retries exhausted: %w", id, model.ErrStoreUnavailable)
}

func (s *Postgres) Delete(ctx context.Context, id string) error {
	res, err := s.sq.Delete("products").
		Where(squirrel.Eq{"product_id": id}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return unavailable("deleting product", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return unavailable("getting affected rows", err)
	}
	if rowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, model.ErrStoreUnavailable)
}
