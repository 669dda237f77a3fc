package prediction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/forecast"
	"github.com/xelth-com/eckposgo/internal/models"
	"github.com/xelth-com/eckposgo/internal/repository"
	"github.com/xelth-com/eckposgo/internal/repository/testutil"
)

var historyStart = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *repository.Repos) {
	t.Helper()
	repos := repository.New(testutil.DB(t), testutil.Logger(t))
	return NewService(repos, forecast.NewModel(), testutil.Logger(t)), repos
}

// seedSales records one sale per day for two products whose demand falls by
// four units per currency unit of price.
func seedSales(t *testing.T, repos *repository.Repos, days int) (*models.Product, *models.Product) {
	t.Helper()
	ctx := context.Background()
	apples := testutil.Product(t, repos.DB, "APPLES", 2, 5, 1000)
	pears := testutil.Product(t, repos.DB, "PEARS", 4, 9, 1000)

	for d := 0; d < days; d++ {
		p1 := 3 + float64(d%5)
		p2 := 8 + float64(d%4)*0.5
		sale := &models.Sale{Timestamp: historyStart.AddDate(0, 0, d)}
		require.NoError(t, repos.Sales.Create(ctx, nil, sale))
		require.NoError(t, repos.Sales.AddItem(ctx, nil, &models.SaleItem{
			SaleID: sale.ID, ProductID: apples.ID, Quantity: int(40 - 4*p1), PriceAtSale: p1,
		}))
		require.NoError(t, repos.Sales.AddItem(ctx, nil, &models.SaleItem{
			SaleID: sale.ID, ProductID: pears.ID, Quantity: int(50 - 4*p2), PriceAtSale: p2,
		}))
	}
	return apples, pears
}

func TestTrainPersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestService(t)
	seedSales(t, repos, 40)

	res, err := svc.Train(ctx)
	require.NoError(t, err)
	assert.Greater(t, res.Score, 0.9)
	assert.Equal(t, 80, res.Rows)
	assert.True(t, svc.Info().Trained)

	snap, err := repos.Snapshots.Latest(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, res.Score, snap.Score)
	assert.Equal(t, 80, snap.Rows)

	restored := NewService(repos, forecast.NewModel(), testutil.Logger(t))
	ok, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, restored.Info().Trained)
	assert.InDelta(t, res.Score, restored.Info().Score, 1e-12)
}

func TestRestoreWithoutSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	ok, err := svc.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, svc.Info().Trained)
}

func TestTrainWithoutSales(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Train(context.Background())
	assert.ErrorIs(t, err, apperr.ErrInsufficientData)
}

func TestForecastAndOptimalPrice(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestService(t)
	apples, _ := seedSales(t, repos, 40)

	_, err := svc.Forecast(ctx, apples.ID, 7)
	require.ErrorIs(t, err, apperr.ErrModelNotTrained)

	_, err = svc.Train(ctx)
	require.NoError(t, err)

	fc, err := svc.Forecast(ctx, apples.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, "APPLES", fc.ProductName)
	require.Len(t, fc.Forecast, 7)
	for _, row := range fc.Forecast {
		assert.Equal(t, 5.0, row.Price)
	}
	assert.True(t, fc.Forecast[0].Date.After(historyStart.AddDate(0, 0, 39)))

	_, err = svc.Forecast(ctx, apples.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Forecast(ctx, 999, 7)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	best, err := svc.OptimalPrice(ctx, apples.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, best.Candidates, forecast.PriceSteps+1)
	assert.InDelta(t, 2.2, best.Candidates[0].Price, 1e-9)
	assert.InDelta(t, 7.5, best.Candidates[forecast.PriceSteps].Price, 1e-9)
	assert.GreaterOrEqual(t, best.Price, 2.2)
	assert.LessOrEqual(t, best.Price, 7.5)
	assert.Equal(t, 2.0, best.CostPrice)

	lo, hi := 6.0, 4.0
	_, err = svc.OptimalPrice(ctx, apples.ID, &lo, &hi)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestStopWithoutStart(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Start(0)
	svc.Stop()
	svc.Stop()
}
