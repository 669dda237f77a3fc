package pricing

import "github.com/shopspring/decimal"

// MarkupFactor is the minimum ratio of selling price to cost price
const MarkupFactor = 1.05

// CurrencyPlaces is the number of decimals prices are rounded to
const CurrencyPlaces = 2

// ProductInput carries the product fields the compositor reads
type ProductInput struct {
	ID            uint
	CostPrice     float64
	BasePrice     float64
	StockQuantity int
}

// Quote is a composed price together with the steps that produced it
type Quote struct {
	ProductID        uint         `json:"product_id"`
	BasePrice        float64      `json:"base_price"`
	TotalDiscount    float64      `json:"total_discount"`
	DiscountedPrice  float64      `json:"discounted_price"`
	GroupAdjustments []Adjustment `json:"group_adjustments,omitempty"`
	FloorApplied     bool         `json:"floor_applied"`
	Price            float64      `json:"price"`
}

// MarkupFloor returns the lowest price allowed for a product with this cost
func MarkupFloor(cost float64) float64 {
	return cost * MarkupFactor
}

// RoundCurrency rounds half away from zero to CurrencyPlaces decimals
func RoundCurrency(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(CurrencyPlaces).Float64()
	return f
}

// Compose computes the live price of one product: rule discounts on the
// base price, then profit-group absorption, then the markup floor, then
// currency rounding. ctx.StockQuantity is taken from p.
func Compose(p ProductInput, rules []Rule, ctx EvalContext, groups []GroupState) Quote {
	ctx.StockQuantity = p.StockQuantity
	discount := TotalDiscount(rules, ctx)

	q := Quote{
		ProductID:     p.ID,
		BasePrice:     p.BasePrice,
		TotalDiscount: discount,
	}

	price := p.BasePrice * (1 - discount/100)
	q.DiscountedPrice = price

	price, q.GroupAdjustments = AbsorbShortfall(p.ID, price, groups)

	if floor := MarkupFloor(p.CostPrice); price < floor {
		price = floor
		q.FloorApplied = true
	}

	q.Price = RoundCurrency(price)
	return q
}
