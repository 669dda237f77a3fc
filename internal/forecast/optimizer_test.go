package forecast

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckposgo/internal/apperr"
)

func TestOptimizePriceFindsProfitPeak(t *testing.T) {
	m := trainedModel(t)
	history := syntheticHistory(60)

	// demand ≈ 40 − 4p, cost 2: profit peaks at p = 6
	opt, err := OptimizePrice(context.Background(), m, 1, history, PriceRange{Min: 2, Max: 10}, 2)
	require.NoError(t, err)

	require.Len(t, opt.Candidates, PriceSteps+1)
	assert.InDelta(t, 2.0, opt.Candidates[0].Price, 1e-9)
	assert.InDelta(t, 10.0, opt.Candidates[PriceSteps].Price, 1e-9)
	assert.InDelta(t, 6.0, opt.Price, 0.41)
	assert.Greater(t, opt.Profit, 0.0)
	for _, c := range opt.Candidates {
		assert.LessOrEqual(t, c.Profit, opt.Profit)
	}
}

func TestOptimizePriceIsDeterministic(t *testing.T) {
	m := trainedModel(t)
	history := syntheticHistory(60)
	r := PriceRange{Min: 3.3, Max: 9.7}

	first, err := OptimizePrice(context.Background(), m, 2, history, r, 4.25)
	require.NoError(t, err)
	second, err := OptimizePrice(context.Background(), m, 2, history, r, 4.25)
	require.NoError(t, err)

	assert.Equal(t, first.Price, second.Price)
	assert.Equal(t, first.Profit, second.Profit)
	assert.Equal(t, first.Candidates, second.Candidates)
}

func TestOptimizePriceKeepsLowestPriceOnTies(t *testing.T) {
	var history []SaleRecord
	for _, s := range syntheticHistory(20) {
		s.Quantity = 0
		history = append(history, s)
	}
	m := NewModel()
	_, err := m.Train(history)
	require.NoError(t, err)

	opt, err := OptimizePrice(context.Background(), m, 1, history, PriceRange{Min: 4, Max: 8}, 1)
	require.NoError(t, err)
	assert.Equal(t, 4.0, opt.Price)
	assert.Equal(t, 0.0, opt.Profit)
}

func TestOptimizePriceDegenerateRange(t *testing.T) {
	m := trainedModel(t)

	opt, err := OptimizePrice(context.Background(), m, 1, syntheticHistory(60), PriceRange{Min: 5, Max: 5}, 2)
	require.NoError(t, err)
	assert.Equal(t, 5.0, opt.Price)
}

func TestOptimizePriceErrors(t *testing.T) {
	m := trainedModel(t)

	_, err := OptimizePrice(context.Background(), m, 77, syntheticHistory(10), PriceRange{Min: 1, Max: 2}, 0.5)
	assert.ErrorIs(t, err, apperr.ErrInsufficientData)

	tests := []struct {
		name string
		r    PriceRange
	}{
		{"inverted", PriceRange{Min: 5, Max: 2}},
		{"nan min", PriceRange{Min: math.NaN(), Max: 10}},
		{"nan max", PriceRange{Min: 2, Max: math.NaN()}},
		{"infinite max", PriceRange{Min: 2, Max: math.Inf(1)}},
		{"infinite min", PriceRange{Min: math.Inf(-1), Max: 2}},
		{"negative min", PriceRange{Min: -1, Max: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OptimizePrice(context.Background(), m, 1, syntheticHistory(10), tt.r, 0.5)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

// steeperHistory has the same days as syntheticHistory but a stronger
// price response, so a model fitted on it optimizes differently.
func steeperHistory(days int) []SaleRecord {
	out := syntheticHistory(days)
	for i := range out {
		out[i].Quantity = 60 - 6*out[i].Price
	}
	return out
}

func TestOptimizePriceUsesOneModelPerScan(t *testing.T) {
	ctx := context.Background()
	history := syntheticHistory(60)
	r := PriceRange{Min: 2, Max: 9}

	refA := NewModel()
	_, err := refA.Train(history)
	require.NoError(t, err)
	wantA, err := OptimizePrice(ctx, refA, 1, history, r, 1)
	require.NoError(t, err)

	refB := NewModel()
	_, err = refB.Train(history)
	require.NoError(t, err)
	_, err = refB.Train(steeperHistory(60))
	require.NoError(t, err)
	wantB, err := OptimizePrice(ctx, refB, 1, history, r, 1)
	require.NoError(t, err)
	require.NotEqual(t, wantA.Profit, wantB.Profit)

	m := NewModel()
	_, err = m.Train(history)
	require.NoError(t, err)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			if i%2 == 0 {
				_, _ = m.Train(steeperHistory(60))
			} else {
				_, _ = m.Train(history)
			}
		}
	}()

	for i := 0; i < 50; i++ {
		got, err := OptimizePrice(ctx, m, 1, history, r, 1)
		require.NoError(t, err)
		matchesA := got.Price == wantA.Price && got.Profit == wantA.Profit
		matchesB := got.Price == wantB.Price && got.Profit == wantB.Profit
		assert.True(t, matchesA || matchesB, "scan %d mixed two trainings: %+v", i, got)
	}
	close(done)
	wg.Wait()
}

func TestDefaultPriceRange(t *testing.T) {
	r := DefaultPriceRange(2, 5)
	assert.InDelta(t, 2.2, r.Min, 1e-9)
	assert.InDelta(t, 7.5, r.Max, 1e-9)
}
