package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFields(t *testing.T) {
	ok := decimal.NewFromFloat(9.99)
	require.NoError(t, ValidateFields("Pen", 10, ok))

	var ve *ValidationError
	err := ValidateFields("", 10, ok)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	err = ValidateFields("  ", 10, ok)
	require.ErrorAs(t, err, &ve)

	err = ValidateFields("Pen", -1, ok)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "quantity", ve.Field)

	err = ValidateFields("Pen", 10, decimal.NewFromInt(-5))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "price", ve.Field)

	require.NoError(t, ValidateFields("Pen", 0, decimal.Zero))
}

func TestLowStockThreshold(t *testing.T) {
	assert.True(t, Product{Quantity: 4}.LowStock())
	assert.False(t, Product{Quantity: 5}.LowStock())
	assert.False(t, Product{Quantity: 7}.LowStock())
}

func TestProductJSONPriceIsNumber(t *testing.T) {
	p := Product{ID: "p1", Name: "Pen", Quantity: 10, Price: decimal.NewFromFloat(5.5)}
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1","name":"Pen","quantity":10,"price":5.5}`, string(b))
}
