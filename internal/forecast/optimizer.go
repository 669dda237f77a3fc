package forecast

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/xelth-com/eckposgo/internal/apperr"
)

// PriceSteps is the number of equal steps the price interval is cut into;
// PriceSteps+1 candidates are evaluated, both bounds included.
const PriceSteps = 20

// PriceRange is an inclusive interval of candidate prices
type PriceRange struct {
	Min float64 `json:"min_price"`
	Max float64 `json:"max_price"`
}

// DefaultPriceRange spans from 10% above cost to 50% above the base price
func DefaultPriceRange(cost, base float64) PriceRange {
	return PriceRange{Min: cost * 1.1, Max: base * 1.5}
}

func (r PriceRange) validate() error {
	for _, v := range []float64{r.Min, r.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return apperr.Validation("price bounds must be finite numbers")
		}
		if v < 0 {
			return apperr.Validation("price bounds must not be negative, got %.2f", v)
		}
	}
	if r.Min > r.Max {
		return apperr.Validation("min price %.2f is above max price %.2f", r.Min, r.Max)
	}
	return nil
}

// Candidate is one evaluated grid point
type Candidate struct {
	Price             float64 `json:"price"`
	PredictedQuantity float64 `json:"predicted_quantity"`
	Profit            float64 `json:"profit"`
}

// Optimum is the best grid point together with the whole scan
type Optimum struct {
	ProductID  uint        `json:"product_id"`
	Price      float64     `json:"optimal_price"`
	Profit     float64     `json:"predicted_profit"`
	Candidates []Candidate `json:"candidates"`
}

// OptimizePrice grid-searches r for the price with the highest predicted
// profit (price − cost) × Σ quantity over the product's historical days.
// Candidates are scored concurrently but chosen by an ascending scan, so the
// lowest price wins ties and identical inputs give identical output.
func OptimizePrice(ctx context.Context, m *Model, productID uint, history []SaleRecord, r PriceRange, cost float64) (Optimum, error) {
	if err := r.validate(); err != nil {
		return Optimum{}, err
	}
	model, ok := m.current()
	if !ok {
		return Optimum{}, apperr.ModelNotTrained("demand model must be trained before optimizing prices")
	}
	sales := filterProduct(history, productID)
	if len(sales) == 0 {
		return Optimum{}, apperr.InsufficientData("no sales history for product %d", productID)
	}
	days := Aggregate(sales)

	step := (r.Max - r.Min) / PriceSteps
	candidates := make([]Candidate, PriceSteps+1)

	g, ctx := errgroup.WithContext(ctx)
	for i := range candidates {
		price := r.Min + float64(i)*step
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows := make([]DailyRow, len(days))
			copy(rows, days)
			for j := range rows {
				rows[j].Price = price
			}
			qty := floats.Sum(model.predict(rows))
			candidates[i] = Candidate{Price: price, PredictedQuantity: qty, Profit: (price - cost) * qty}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Optimum{}, err
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Profit > best.Profit {
			best = c
		}
	}
	return Optimum{ProductID: productID, Price: best.Price, Profit: best.Profit, Candidates: candidates}, nil
}
