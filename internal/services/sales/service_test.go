package sales

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/models"
	"github.com/xelth-com/eckposgo/internal/repository"
	"github.com/xelth-com/eckposgo/internal/repository/testutil"
	"github.com/xelth-com/eckposgo/internal/services/pricing"
)

type stockRecorder struct {
	mu      sync.Mutex
	changes []models.Product
}

func (r *stockRecorder) StockChanged(p models.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, p)
}

func newTestService(t *testing.T) (*Service, *pricing.Service, *repository.Repos, *stockRecorder) {
	t.Helper()
	repos := repository.New(testutil.DB(t), testutil.Logger(t))
	prices := pricing.NewService(repos, nil, time.UTC, testutil.Logger(t))
	stock := &stockRecorder{}
	return NewService(repos, prices, stock, testutil.Logger(t)), prices, repos, stock
}

func TestCheckoutFlow(t *testing.T) {
	ctx := context.Background()
	svc, _, repos, stock := newTestService(t)
	milk := testutil.Product(t, repos.DB, "MILK", 0.8, 1.2, 10)
	bread := testutil.Product(t, repos.DB, "BREAD", 1, 2.5, 3)

	sale, err := svc.Create(ctx, NewSale{PaymentMethod: "card"})
	require.NoError(t, err)
	assert.Empty(t, sale.Items)
	assert.Zero(t, sale.TotalAmount)

	item, err := svc.AddItem(ctx, sale.ID, milk.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.2, item.PriceAtSale)
	_, err = svc.AddItem(ctx, sale.ID, bread.ID, 1)
	require.NoError(t, err)

	got, err := svc.Get(ctx, sale.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.9, got.TotalAmount, 1e-9)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "MILK", got.Items[0].ProductName)
	assert.InDelta(t, 2.4, got.Items[0].Subtotal, 1e-9)

	p, err := repos.Products.GetByID(ctx, nil, milk.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, p.StockQuantity)

	require.Len(t, stock.changes, 2)
	assert.Equal(t, 8, stock.changes[0].StockQuantity)

	list, err := svc.List(ctx, repository.Period{}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAddItemRejectsBadRequests(t *testing.T) {
	ctx := context.Background()
	svc, _, repos, stock := newTestService(t)
	p := testutil.Product(t, repos.DB, "SOAP", 1, 2, 1)
	sale, err := svc.Create(ctx, NewSale{})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, sale.ID, p.ID, 2)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.AddItem(ctx, sale.ID, p.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.AddItem(ctx, 999, p.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.AddItem(ctx, sale.ID, 999, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Empty(t, stock.changes)
	got, err := repos.Products.GetByID(ctx, nil, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StockQuantity)
}

func TestSaleRepricesThroughStockRules(t *testing.T) {
	ctx := context.Background()
	svc, prices, repos, _ := newTestService(t)
	p := testutil.Product(t, repos.DB, "BANANA", 0.5, 2, 12)

	// clearance discount once ten or fewer are left
	_, err := prices.CreateRule(ctx, pricing.NewRule{
		ProductID:          p.ID,
		RuleType:           "stock_level",
		Condition:          json.RawMessage(`{"min_stock":0,"max_stock":10}`),
		DiscountPercentage: 50,
	})
	require.NoError(t, err)

	sale, err := svc.Create(ctx, NewSale{})
	require.NoError(t, err)
	item, err := svc.AddItem(ctx, sale.ID, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, item.PriceAtSale)

	got, err := repos.Products.GetByID(ctx, nil, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.CurrentPrice)
}
