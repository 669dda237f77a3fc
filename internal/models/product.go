package models

import (
	"time"

	"github.com/xelth-com/eckposgo/internal/pricing"
)

// Product is a sellable item. CurrentPrice is derived by the pricing
// service and never written directly by API clients.
type Product struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SKU           string    `gorm:"size:50;uniqueIndex;not null" json:"sku"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	Description   string    `gorm:"size:500" json:"description,omitempty"`
	CostPrice     float64   `gorm:"not null" json:"cost_price"`
	BasePrice     float64   `gorm:"not null" json:"base_price"`
	CurrentPrice  float64   `gorm:"not null" json:"current_price"`
	StockQuantity int       `gorm:"not null;default:0" json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	ProfitGroups []ProfitGroup `gorm:"many2many:product_group_association;joinForeignKey:ProductID;joinReferences:GroupID" json:"-"`
	PricingRules []PricingRule `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Product) TableName() string { return "products" }

// PricingInput is the view of the product the compositor needs
func (p Product) PricingInput() pricing.ProductInput {
	return pricing.ProductInput{
		ID:            p.ID,
		CostPrice:     p.CostPrice,
		BasePrice:     p.BasePrice,
		StockQuantity: p.StockQuantity,
	}
}

// GroupMember is the view of the product inside a profit group
func (p Product) GroupMember() pricing.GroupMember {
	return pricing.GroupMember{ProductID: p.ID, CostPrice: p.CostPrice, CurrentPrice: p.CurrentPrice}
}

// PriceChange is an audit row written whenever a product's live price moves
type PriceChange struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"index;not null" json:"product_id"`
	OldPrice  float64   `json:"old_price"`
	NewPrice  float64   `json:"new_price"`
	Trigger   string    `gorm:"size:50" json:"trigger"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (PriceChange) TableName() string { return "price_changes" }
