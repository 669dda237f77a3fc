package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/xelth-com/eckposgo/internal/pricing"
)

// PricingRule stores a discount bound to one product. Condition holds the
// JSON payload matching RuleType.
type PricingRule struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	ProductID          uint           `gorm:"index;not null" json:"product_id"`
	RuleType           string         `gorm:"size:50;not null" json:"rule_type"`
	Condition          datatypes.JSON `gorm:"not null" json:"condition"`
	DiscountPercentage float64        `gorm:"not null" json:"discount_percentage"`
	IsActive           bool           `gorm:"not null" json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (PricingRule) TableName() string { return "pricing_rules" }

// Rule decodes the stored row. A payload that no longer parses yields a
// rule with a nil condition, which never matches, together with the error.
func (r PricingRule) Rule() (pricing.Rule, error) {
	out := pricing.Rule{
		ID:                 r.ID,
		Type:               pricing.RuleType(r.RuleType),
		DiscountPercentage: r.DiscountPercentage,
		Active:             r.IsActive,
	}
	cond, err := pricing.ParseCondition(out.Type, r.Condition)
	if err != nil {
		return out, err
	}
	out.Condition = cond
	return out, nil
}

// StoreStatus is one captured occupancy snapshot; the newest row wins
type StoreStatus struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	VacancyRate float64   `gorm:"not null;default:0" json:"vacancy_rate"`
	LineLength  int       `gorm:"not null;default:0" json:"line_length"`
	Timestamp   time.Time `gorm:"index;not null" json:"timestamp"`
}

func (StoreStatus) TableName() string { return "store_status" }

// Context converts the snapshot for rule evaluation; nil means no snapshot
func (s *StoreStatus) Context() pricing.StoreContext {
	if s == nil {
		return pricing.StoreContext{}
	}
	return pricing.StoreContext{VacancyRate: s.VacancyRate, LineLength: s.LineLength, CapturedAt: s.Timestamp}
}
