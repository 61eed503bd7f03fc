package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/inventory-stock-service/internal/model"
	"github.com/fairyhunter13/inventory-stock-service/internal/store"
)

func newTestService() *Service {
	return New(store.NewMemory(), nil)
}

func TestAddProductRoundTrip(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.AddProduct(ctx, "Pen", 10, decimal.NewFromInt(5))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := svc.Product(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pen", got.Name)
	assert.Equal(t, int64(10), got.Quantity)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(5)))
}

func TestAddProductValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	var ve *model.ValidationError

	_, err := svc.AddProduct(ctx, "", 1, decimal.Zero)
	require.ErrorAs(t, err, &ve)
	_, err = svc.AddProduct(ctx, "Pen", -1, decimal.Zero)
	require.ErrorAs(t, err, &ve)
	_, err = svc.AddProduct(ctx, "Pen", 1, decimal.NewFromInt(-1))
	require.ErrorAs(t, err, &ve)

	products, err := svc.Products(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestUpdateProductReplaceSemantics(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.AddProduct(ctx, "Pen", 10, decimal.NewFromInt(5))
	require.NoError(t, err)

	_, err = svc.UpdateProduct(ctx, created.ID, "Gel Pen", 3, decimal.NewFromFloat(7.5))
	require.NoError(t, err)

	got, err := svc.Product(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gel Pen", got.Name)
	assert.Equal(t, int64(3), got.Quantity)
	assert.True(t, got.Price.Equal(decimal.NewFromFloat(7.5)))

	_, err = svc.UpdateProduct(ctx, "nope", "Pen", 1, decimal.Zero)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSellDecrementsStock(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.AddProduct(ctx, "Pen", 10, decimal.NewFromInt(5))
	require.NoError(t, err)

	p, err := svc.Sell(ctx, created.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.Quantity)

	p, err = svc.Sell(ctx, created.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Quantity)
}

func TestSellRejectsOversell(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.AddProduct(ctx, "Pen", 7, decimal.NewFromInt(5))
	require.NoError(t, err)

	var ise *model.InsufficientStockError
	_, err = svc.Sell(ctx, created.ID, 100)
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, int64(100), ise.Requested)
	assert.Equal(t, int64(7), ise.Available)

	got, err := svc.Product(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Quantity)
}

func TestSellAmountValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.AddProduct(ctx, "Pen", 7, decimal.NewFromInt(5))
	require.NoError(t, err)

	var ve *model.ValidationError
	_, err = svc.Sell(ctx, created.ID, 0)
	require.ErrorAs(t, err, &ve)
	_, err = svc.Sell(ctx, created.ID, -2)
	require.ErrorAs(t, err, &ve)

	got, err := svc.Product(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Quantity)
}

func TestSellUnknownProduct(t *testing.T) {
	svc := newTestService()
	_, err := svc.Sell(context.Background(), "nope", 1)
	require.ErrorIs(t, err, model.ErrNotFound)
}

// Concurrent single-unit sells against a smaller stock must yield exactly
// stock successes, the rest insufficient-stock failures, and a final
// quantity of zero.
func TestSellRaceSafety(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	const stock = 7
	const sellers = 25

	created, err := svc.AddProduct(ctx, "Pen", stock, decimal.NewFromInt(5))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, sellers)
	for i := 0; i < sellers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Sell(ctx, created.ID, 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var ise *model.InsufficientStockError
		require.ErrorAs(t, err, &ise)
		rejections++
	}
	assert.Equal(t, stock, successes)
	assert.Equal(t, sellers-stock, rejections)

	got, err := svc.Product(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Quantity)
}

func TestLowStockFilterAndOrder(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	fixtures := []struct {
		name string
		qty  int64
	}{
		{"Pen", 10},
		{"Notebook", 4},
		{"Eraser", 0},
		{"Ruler", 5},
		{"Marker", 2},
	}
	for _, f := range fixtures {
		_, err := svc.AddProduct(ctx, f.name, f.qty, decimal.NewFromInt(1))
		require.NoError(t, err)
	}

	low, err := svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 3)
	assert.Equal(t, "Notebook", low[0].Name)
	assert.Equal(t, "Eraser", low[1].Name)
	assert.Equal(t, "Marker", low[2].Name)
}

func TestDeleteProduct(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.AddProduct(ctx, "Pen", 1, decimal.NewFromInt(1))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))
	require.ErrorIs(t, svc.DeleteProduct(ctx, created.ID), model.ErrNotFound)
	_, err = svc.Product(ctx, created.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSummaryAggregates(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, "Pen", 10, decimal.NewFromFloat(5))
	require.NoError(t, err)
	_, err = svc.AddProduct(ctx, "Notebook", 2, decimal.NewFromFloat(3.5))
	require.NoError(t, err)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalProducts)
	assert.Equal(t, int64(12), sum.TotalStock)
	assert.Equal(t, 1, sum.LowStockCount)
	assert.True(t, sum.InventoryValue.Equal(decimal.NewFromInt(57)), "got %s", sum.InventoryValue)
}

// The dashboard walkthrough: add Pen qty 10, sell 3, fail an oversell, sell
// 3 more and watch it cross the low-stock threshold.
func TestPenScenario(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	pen, err := svc.AddProduct(ctx, "Pen", 10, decimal.NewFromInt(5))
	require.NoError(t, err)

	p, err := svc.Sell(ctx, pen.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.Quantity)

	var ise *model.InsufficientStockError
	_, err = svc.Sell(ctx, pen.ID, 100)
	require.ErrorAs(t, err, &ise)

	low, err := svc.LowStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, low)

	p, err = svc.Sell(ctx, pen.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.Quantity)

	low, err = svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, pen.ID, low[0].ID)
}
