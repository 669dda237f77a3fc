package pricing

import "sort"

// GroupMember is one product's price position inside a profit group
type GroupMember struct {
	ProductID    uint
	CostPrice    float64
	CurrentPrice float64
}

// GroupState is a snapshot of a profit group and all of its members
type GroupState struct {
	ID             uint
	MinProfitPrice float64
	Members        []GroupMember
}

// GroupProfit returns Σ current_price − Σ cost_price over the members
func GroupProfit(g GroupState) float64 {
	revenue, cost := 0.0, 0.0
	for _, m := range g.Members {
		revenue += m.CurrentPrice
		cost += m.CostPrice
	}
	return revenue - cost
}

// Adjustment records the shortfall one group pushed onto a product price
type Adjustment struct {
	GroupID   uint    `json:"group_id"`
	Profit    float64 `json:"profit"`
	Shortfall float64 `json:"shortfall"`
}

// AbsorbShortfall makes the product being priced carry each group's profit
// shortfall on its own. Groups are visited in ascending ID order and every
// check sees the price already raised by the groups before it.
func AbsorbShortfall(productID uint, candidate float64, groups []GroupState) (float64, []Adjustment) {
	ordered := make([]GroupState, len(groups))
	copy(ordered, groups)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	price := candidate
	var adjustments []Adjustment
	for _, g := range ordered {
		profit := profitWithCandidate(g, productID, price)
		if profit >= g.MinProfitPrice {
			continue
		}
		shortfall := g.MinProfitPrice - profit
		price += shortfall
		adjustments = append(adjustments, Adjustment{GroupID: g.ID, Profit: profit, Shortfall: shortfall})
	}
	return price, adjustments
}

// profitWithCandidate computes (candidate + Σ other current prices) − Σ all costs
func profitWithCandidate(g GroupState, productID uint, candidate float64) float64 {
	revenue, cost := candidate, 0.0
	for _, m := range g.Members {
		cost += m.CostPrice
		if m.ProductID != productID {
			revenue += m.CurrentPrice
		}
	}
	return revenue - cost
}

// RebalanceResult describes an even-distribution adjustment of a whole group
type RebalanceResult struct {
	GroupID            uint          `json:"group_id"`
	ProfitBefore       float64       `json:"profit_before"`
	Shortfall          float64       `json:"shortfall"`
	IncreasePerProduct float64       `json:"increase_per_product"`
	Members            []GroupMember `json:"members"`
	Adjusted           bool          `json:"adjusted"`
}

// Rebalance spreads a group's profit shortfall evenly over every member.
// Unlike AbsorbShortfall it touches all members and neither rounds nor
// applies the markup floor. Empty groups and groups already at target are
// returned unchanged.
func Rebalance(g GroupState) RebalanceResult {
	res := RebalanceResult{
		GroupID:      g.ID,
		ProfitBefore: GroupProfit(g),
		Members:      append([]GroupMember(nil), g.Members...),
	}
	if len(g.Members) == 0 || res.ProfitBefore >= g.MinProfitPrice {
		return res
	}

	res.Shortfall = g.MinProfitPrice - res.ProfitBefore
	res.IncreasePerProduct = res.Shortfall / float64(len(g.Members))
	for i := range res.Members {
		res.Members[i].CurrentPrice += res.IncreasePerProduct
	}
	res.Adjusted = true
	return res
}
