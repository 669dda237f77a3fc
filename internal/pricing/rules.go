package pricing

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/xelth-com/eckposgo/internal/apperr"
)

// RuleType names the context a pricing rule reacts to
type RuleType string

const (
	RuleTimeOfDay   RuleType = "time_of_day"
	RuleDayOfWeek   RuleType = "day_of_week"
	RuleStockLevel  RuleType = "stock_level"
	RuleQueueLength RuleType = "line_length"
	RuleVacancyRate RuleType = "vacancy_rate"
)

// RuleTypes lists every accepted rule type in display order
var RuleTypes = []RuleType{RuleTimeOfDay, RuleDayOfWeek, RuleStockLevel, RuleQueueLength, RuleVacancyRate}

// Valid reports whether t belongs to the closed set of rule types
func (t RuleType) Valid() bool {
	for _, known := range RuleTypes {
		if t == known {
			return true
		}
	}
	return false
}

// StoreContext is the latest store occupancy snapshot. The zero value
// stands for "no snapshot recorded yet".
type StoreContext struct {
	VacancyRate float64
	LineLength  int
	CapturedAt  time.Time
}

// EvalContext is everything a rule condition may look at
type EvalContext struct {
	Now           time.Time
	StockQuantity int
	Store         StoreContext
}

// weekday returns 0 for Monday through 6 for Sunday
func (c EvalContext) weekday() int {
	return (int(c.Now.Weekday()) + 6) % 7
}

// Condition is the typed payload of a pricing rule. The set of
// implementations is closed: TimeOfDay, DayOfWeek, StockLevel, QueueLength
// and VacancyRate.
type Condition interface {
	Type() RuleType
	Matches(ctx EvalContext) bool
	condition()
}

// TimeOfDay matches when StartHour <= hour < EndHour
type TimeOfDay struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

// DayOfWeek matches on listed weekdays (0=Monday .. 6=Sunday)
type DayOfWeek struct {
	Days []int `json:"days"`
}

// StockLevel matches when MinStock <= stock <= MaxStock
type StockLevel struct {
	MinStock int `json:"min_stock"`
	MaxStock int `json:"max_stock"`
}

// QueueLength matches when the checkout line is at least MinLength long
type QueueLength struct {
	MinLength int `json:"min_length"`
}

// VacancyRate matches when the store vacancy rate is at least MinRate percent
type VacancyRate struct {
	MinRate float64 `json:"min_rate"`
}

func (TimeOfDay) Type() RuleType   { return RuleTimeOfDay }
func (DayOfWeek) Type() RuleType   { return RuleDayOfWeek }
func (StockLevel) Type() RuleType  { return RuleStockLevel }
func (QueueLength) Type() RuleType { return RuleQueueLength }
func (VacancyRate) Type() RuleType { return RuleVacancyRate }

func (TimeOfDay) condition()   {}
func (DayOfWeek) condition()   {}
func (StockLevel) condition()  {}
func (QueueLength) condition() {}
func (VacancyRate) condition() {}

func (c TimeOfDay) Matches(ctx EvalContext) bool {
	hour := ctx.Now.Hour()
	return c.StartHour <= hour && hour < c.EndHour
}

func (c DayOfWeek) Matches(ctx EvalContext) bool {
	day := ctx.weekday()
	for _, d := range c.Days {
		if d == day {
			return true
		}
	}
	return false
}

func (c StockLevel) Matches(ctx EvalContext) bool {
	return c.MinStock <= ctx.StockQuantity && ctx.StockQuantity <= c.MaxStock
}

func (c QueueLength) Matches(ctx EvalContext) bool {
	return ctx.Store.LineLength >= c.MinLength
}

func (c VacancyRate) Matches(ctx EvalContext) bool {
	return ctx.Store.VacancyRate >= c.MinRate
}

// Rule is an evaluated view of a stored pricing rule. A nil Condition marks
// a payload that could not be decoded; such a rule never matches.
type Rule struct {
	ID                 uint
	Type               RuleType
	Condition          Condition
	DiscountPercentage float64
	Active             bool
}

// Matches reports whether the rule is active and its condition holds
func (r Rule) Matches(ctx EvalContext) bool {
	if !r.Active || r.Condition == nil {
		return false
	}
	return r.Condition.Matches(ctx)
}

// TotalDiscount sums the discount percentage of every matching rule. The
// sum is not clamped; Compose's markup floor bounds the final price.
func TotalDiscount(rules []Rule, ctx EvalContext) float64 {
	total := 0.0
	for _, r := range rules {
		if r.Matches(ctx) {
			total += r.DiscountPercentage
		}
	}
	return total
}

// wire formats with pointer fields so a missing key is distinguishable from zero
type (
	timeOfDayWire struct {
		StartHour *int `json:"start_hour"`
		EndHour   *int `json:"end_hour"`
	}
	dayOfWeekWire struct {
		Days *[]int `json:"days"`
	}
	stockLevelWire struct {
		MinStock *int `json:"min_stock"`
		MaxStock *int `json:"max_stock"`
	}
	queueLengthWire struct {
		MinLength *int `json:"min_length"`
	}
	vacancyRateWire struct {
		MinRate *float64 `json:"min_rate"`
	}
)

// ParseCondition decodes and validates a condition payload for the given
// rule type. It is strict: unknown types, malformed JSON and missing or
// out-of-range fields are validation errors.
func ParseCondition(t RuleType, raw []byte) (Condition, error) {
	if !t.Valid() {
		return nil, apperr.Validation("invalid rule type %q", t)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, apperr.Validation("condition must be a valid JSON object")
	}

	switch t {
	case RuleTimeOfDay:
		var w timeOfDayWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, apperr.Validation("time_of_day condition: %v", err)
		}
		if w.StartHour == nil || w.EndHour == nil {
			return nil, apperr.Validation("time_of_day condition requires start_hour and end_hour")
		}
		if !inRange(*w.StartHour, 0, 24) || !inRange(*w.EndHour, 0, 24) {
			return nil, apperr.Validation("time_of_day hours must be within 0..24")
		}
		return TimeOfDay{StartHour: *w.StartHour, EndHour: *w.EndHour}, nil

	case RuleDayOfWeek:
		var w dayOfWeekWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, apperr.Validation("day_of_week condition: %v", err)
		}
		if w.Days == nil {
			return nil, apperr.Validation("day_of_week condition requires days")
		}
		for _, d := range *w.Days {
			if !inRange(d, 0, 6) {
				return nil, apperr.Validation("day_of_week days must be within 0..6, got %d", d)
			}
		}
		return DayOfWeek{Days: append(make([]int, 0, len(*w.Days)), (*w.Days)...)}, nil

	case RuleStockLevel:
		var w stockLevelWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, apperr.Validation("stock_level condition: %v", err)
		}
		if w.MinStock == nil || w.MaxStock == nil {
			return nil, apperr.Validation("stock_level condition requires min_stock and max_stock")
		}
		return StockLevel{MinStock: *w.MinStock, MaxStock: *w.MaxStock}, nil

	case RuleQueueLength:
		var w queueLengthWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, apperr.Validation("line_length condition: %v", err)
		}
		if w.MinLength == nil {
			return nil, apperr.Validation("line_length condition requires min_length")
		}
		return QueueLength{MinLength: *w.MinLength}, nil

	default: // RuleVacancyRate
		var w vacancyRateWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, apperr.Validation("vacancy_rate condition: %v", err)
		}
		if w.MinRate == nil {
			return nil, apperr.Validation("vacancy_rate condition requires min_rate")
		}
		return VacancyRate{MinRate: *w.MinRate}, nil
	}
}

// ValidateDiscount checks a single rule's discount percentage
func ValidateDiscount(pct float64) error {
	if pct < 0 || pct > 100 {
		return apperr.Validation("discount_percentage must be within 0..100, got %g", pct)
	}
	return nil
}

func inRange(v, lo, hi int) bool { return v >= lo && v <= hi }
