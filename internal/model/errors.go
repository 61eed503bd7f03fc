package model

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that no product exists for the referenced id.
var ErrNotFound = errors.New("product not found")

// ErrStoreUnavailable reports a transient backend failure that persisted
// through the bounded retries of the store layer.
var ErrStoreUnavailable = errors.New("store unavailable")

// ValidationError reports malformed or out-of-domain input. No state change
// has occurred when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientStockError reports a sell amount exceeding the current
// quantity. The record is left untouched.
type InsufficientStockError struct {
	ID        string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ID, e.Requested, e.Available)
}
