package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/inventory-stock-service/internal/model"
)

const redisIndexKey = "products:index"

// Redis keeps one JSON value per product key and the insertion order in a
// list. Apply relies on WATCH: the transaction aborts if another writer
// touches the key between the read and the pipelined write, and the attempt
// is retried.
type Redis struct {
	client   *redis.Client
	attempts int
}

// NewRedis wraps an initialized client. attempts bounds the optimistic
// retries of Apply before the operation fails with ErrStoreUnavailable.
func NewRedis(client *redis.Client, attempts int) *Redis {
	if attempts <= 0 {
		attempts = 3
	}
	return &Redis{client: client, attempts: attempts}
}

func productKey(id string) string { return "product:" + id }

func (s *Redis) Create(ctx context.Context, name string, quantity int64, price decimal.Decimal) (model.Product, error) {
	if err := model.ValidateFields(name, quantity, price); err != nil {
		return model.Product{}, err
	}
	p := model.Product{
		ID:       uuid.NewString(),
		Name:     name,
		Quantity: quantity,
		Price:    price,
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return model.Product{}, fmt.Errorf("encoding product: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, productKey(p.ID), payload, 0)
		pipe.RPush(ctx, redisIndexKey, p.ID)
		return nil
	})
	if err != nil {
		return model.Product{}, unavailable("storing product", err)
	}
	return p, nil
}

func (s *Redis) Get(ctx context.Context, id string) (model.Product, error) {
	raw, err := s.client.Get(ctx, productKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Product{}, model.ErrNotFound
	}
	if err != nil {
		return model.Product{}, unavailable("fetching product", err)
	}
	var p model.Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return model.Product{}, fmt.Errorf("decoding product %s: %w", id, err)
	}
	return p, nil
}

func (s *Redis) List(ctx context.Context) ([]model.Product, error) {
	ids, err := s.client.LRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, unavailable("reading product index", err)
	}
	out := make([]model.Product, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable("fetching products", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry without a value: deleted concurrently
			continue
		}
		var p model.Product
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decoding product %s: %w", ids[i], err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Redis) Update(ctx context.Context, id, name string, quantity int64, price decimal.Decimal) (model.Product, error) {
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

func (s *Redis) Apply(ctx context.Context, id string, fn func(model.Product) (model.Product, error)) (model.Product, error) {
	key := productKey(id)
	var result model.Product
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return model.ErrNotFound
		}
		if err != nil {
			return unavailable("fetching product", err)
		}
		var p model.Product
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return fmt.Errorf("decoding product %s: %w", id, err)
		}
		next, err := fn(p)
		if err != nil {
			return err
		}
		next.ID = p.ID
		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encoding product: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if err == nil {
			result = next
		}
		return err
	}
	for attempt := 0; attempt < s.attempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return model.Product{}, err
	}
	return model.Product{}, fmt.Errorf("apply on product %s: retries exhausted: %w", id, model.ErrStoreUnavailable)
}

func (s *Redis) Delete(ctx context.Context, id string) error {
	key := productKey(id)
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return unavailable("checking product", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.LRem(ctx, redisIndexKey, 1, id)
		return nil
	})
	if err != nil {
		return unavailable("deleting product", err)
	}
	return nil
}
