package models

import (
	"time"

	"gorm.io/datatypes"
)

// Customer is an optional buyer attached to a sale
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     *string   `gorm:"size:100;uniqueIndex" json:"email,omitempty"`
	Phone     string    `gorm:"size:20" json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Customer) TableName() string { return "customers" }

// Sale is a checkout basket. TotalAmount accumulates as items are added.
type Sale struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CustomerID    *uint      `gorm:"index" json:"customer_id"`
	Customer      *Customer  `json:"-"`
	TotalAmount   float64    `gorm:"not null;default:0" json:"total_amount"`
	PaymentMethod string     `gorm:"size:50" json:"payment_method,omitempty"`
	Timestamp     time.Time  `gorm:"index;not null" json:"timestamp"`
	Items         []SaleItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

func (Sale) TableName() string { return "sales" }

// SaleItem is immutable once written; it is the demand model's training data
type SaleItem struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	SaleID      uint     `gorm:"index;not null" json:"sale_id"`
	ProductID   uint     `gorm:"index;not null" json:"product_id"`
	Product     *Product `json:"-"`
	Quantity    int      `gorm:"not null" json:"quantity"`
	PriceAtSale float64  `gorm:"not null" json:"price_at_sale"`
}

func (SaleItem) TableName() string { return "sale_items" }

// DemandModelSnapshot persists a trained demand model as one JSON document
type DemandModelSnapshot struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Payload   datatypes.JSON `gorm:"not null" json:"-"`
	Score     float64        `json:"score"`
	Rows      int            `json:"rows"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (DemandModelSnapshot) TableName() string { return "demand_model_snapshots" }
