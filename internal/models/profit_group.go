package models

import (
	"time"

	"github.com/xelth-com/eckposgo/internal/pricing"
)

// ProfitGroup is a set of products that must jointly earn MinProfitPrice.
// Membership is non-exclusive.
type ProfitGroup struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	MinProfitPrice float64   `gorm:"not null" json:"min_profit_price"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Products []Product `gorm:"many2many:product_group_association;joinForeignKey:GroupID;joinReferences:ProductID" json:"products,omitempty"`
}

func (ProfitGroup) TableName() string { return "profit_groups" }

// State converts the group and its loaded members for the constraint solver
func (g ProfitGroup) State() pricing.GroupState {
	st := pricing.GroupState{ID: g.ID, MinProfitPrice: g.MinProfitPrice}
	for _, p := range g.Products {
		st.Members = append(st.Members, p.GroupMember())
	}
	return st
}
