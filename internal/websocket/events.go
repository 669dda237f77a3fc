package websocket

import "github.com/xelth-com/eckposgo/internal/models"

const (
	EventPriceUpdate = "price_update"
	EventStockUpdate = "stock_update"
)

// PriceEntry is one product line of a price_update event
type PriceEntry struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
}

// PriceUpdate is pushed whenever live prices are written
type PriceUpdate struct {
	Event    string       `json:"event"`
	Products []PriceEntry `json:"products"`
}

// StockUpdate is pushed after a sale lowers a product's stock
type StockUpdate struct {
	Event       string `json:"event"`
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	NewStock    int    `json:"new_stock"`
}

// Notifier turns domain changes into hub broadcasts. A nil Notifier or one
// without a hub drops everything.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) PricesChanged(products []models.Product) {
	if n == nil || n.hub == nil {
		return
	}
	ev := PriceUpdate{Event: EventPriceUpdate, Products: make([]PriceEntry, 0, len(products))}
	for _, p := range products {
		ev.Products = append(ev.Products, PriceEntry{ID: p.ID, Name: p.Name, CurrentPrice: p.CurrentPrice})
	}
	if err := n.hub.Broadcast(ev); err != nil {
		n.hub.log.Error("price update broadcast failed", "error", err)
	}
}

func (n *Notifier) StockChanged(p models.Product) {
	if n == nil || n.hub == nil {
		return
	}
	ev := StockUpdate{Event: EventStockUpdate, ProductID: p.ID, ProductName: p.Name, NewStock: p.StockQuantity}
	if err := n.hub.Broadcast(ev); err != nil {
		n.hub.log.Error("stock update broadcast failed", "error", err)
	}
}
