package analytics

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/pricing"
	"github.com/xelth-com/eckposgo/internal/repository"
)

const DefaultTopLimit = 10

type Service struct {
	repos *repository.Repos
	log   *logger.Logger
}

func NewService(repos *repository.Repos, baseLog *logger.Logger) *Service {
	return &Service{repos: repos, log: baseLog.With("service", "AnalyticsService")}
}

// Summary aggregates sales over a period. Money values are rounded to cents.
type Summary struct {
	TotalRevenue float64 `json:"total_revenue"`
	TotalProfit  float64 `json:"total_profit"`
	ProfitMargin float64 `json:"profit_margin"`
	SalesCount   int     `json:"number_of_sales"`
	AverageSale  float64 `json:"average_sale_value"`
	ItemsSold    int     `json:"items_sold"`
}

// SalesSummary computes revenue from sale totals and profit from the items'
// price at sale against the product's current cost.
func (s *Service) SalesSummary(ctx context.Context, period repository.Period) (*Summary, error) {
	totals, err := s.repos.Sales.Totals(ctx, nil, period)
	if err != nil {
		return nil, err
	}
	lines, err := s.repos.Sales.Lines(ctx, nil, period)
	if err != nil {
		return nil, err
	}

	revenue := decimal.Zero
	for _, t := range totals {
		revenue = revenue.Add(decimal.NewFromFloat(t))
	}
	profit := decimal.Zero
	items := 0
	for _, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		margin := decimal.NewFromFloat(l.PriceAtSale).Sub(decimal.NewFromFloat(l.CostPrice))
		profit = profit.Add(margin.Mul(qty))
		items += l.Quantity
	}

	out := &Summary{
		TotalRevenue: money(revenue),
		TotalProfit:  money(profit),
		SalesCount:   len(totals),
		ItemsSold:    items,
	}
	if !revenue.IsZero() {
		out.ProfitMargin, _ = profit.Div(revenue).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	}
	if len(totals) > 0 {
		out.AverageSale = money(revenue.Div(decimal.NewFromInt(int64(len(totals)))))
	}
	return out, nil
}

// TopProducts ranks products by units sold; a non-positive limit means the default
func (s *Service) TopProducts(ctx context.Context, limit int) ([]repository.ProductSales, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	top, err := s.repos.Sales.TopProducts(ctx, nil, limit)
	if err != nil {
		return nil, err
	}
	for i := range top {
		top[i].TotalRevenue = pricing.RoundCurrency(top[i].TotalRevenue)
	}
	return top, nil
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(pricing.CurrencyPlaces).Float64()
	return f
}
