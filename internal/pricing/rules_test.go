package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckposgo/internal/apperr"
)

// 2026-10-12 is a Monday
func at(day, hour int) time.Time {
	return time.Date(2026, 10, day, hour, 30, 0, 0, time.UTC)
}

func TestTimeOfDayWindow(t *testing.T) {
	cond := TimeOfDay{StartHour: 14, EndHour: 17}

	tests := []struct {
		hour int
		want bool
	}{
		{13, false},
		{14, true},
		{15, true},
		{16, true},
		{17, false},
	}
	for _, tt := range tests {
		got := cond.Matches(EvalContext{Now: at(12, tt.hour)})
		assert.Equalf(t, tt.want, got, "hour %d", tt.hour)
	}
}

func TestDayOfWeekUsesMondayZero(t *testing.T) {
	weekend := DayOfWeek{Days: []int{5, 6}}

	assert.False(t, weekend.Matches(EvalContext{Now: at(12, 10)}), "Monday")
	assert.False(t, weekend.Matches(EvalContext{Now: at(16, 10)}), "Friday")
	assert.True(t, weekend.Matches(EvalContext{Now: at(17, 10)}), "Saturday")
	assert.True(t, weekend.Matches(EvalContext{Now: at(18, 10)}), "Sunday")

	monday := DayOfWeek{Days: []int{0}}
	assert.True(t, monday.Matches(EvalContext{Now: at(12, 0)}))
}

func TestStockAndStoreConditions(t *testing.T) {
	stock := StockLevel{MinStock: 10, MaxStock: 50}
	assert.False(t, stock.Matches(EvalContext{StockQuantity: 9}))
	assert.True(t, stock.Matches(EvalContext{StockQuantity: 10}))
	assert.True(t, stock.Matches(EvalContext{StockQuantity: 50}))
	assert.False(t, stock.Matches(EvalContext{StockQuantity: 51}))

	queue := QueueLength{MinLength: 5}
	assert.False(t, queue.Matches(EvalContext{Store: StoreContext{LineLength: 4}}))
	assert.True(t, queue.Matches(EvalContext{Store: StoreContext{LineLength: 5}}))

	vacancy := VacancyRate{MinRate: 50}
	assert.False(t, vacancy.Matches(EvalContext{}), "no snapshot means zero vacancy")
	assert.True(t, vacancy.Matches(EvalContext{Store: StoreContext{VacancyRate: 72.5}}))
}

func TestTotalDiscountSumsMatchingActiveRules(t *testing.T) {
	ctx := EvalContext{Now: at(17, 15), StockQuantity: 20, Store: StoreContext{LineLength: 8, VacancyRate: 10}}
	rules := []Rule{
		{ID: 1, Type: RuleTimeOfDay, Condition: TimeOfDay{StartHour: 14, EndHour: 17}, DiscountPercentage: 10, Active: true},
		{ID: 2, Type: RuleDayOfWeek, Condition: DayOfWeek{Days: []int{5}}, DiscountPercentage: 5, Active: true},
		{ID: 3, Type: RuleStockLevel, Condition: StockLevel{MinStock: 0, MaxStock: 10}, DiscountPercentage: 20, Active: true},
		{ID: 4, Type: RuleQueueLength, Condition: QueueLength{MinLength: 5}, DiscountPercentage: 7.5, Active: false},
		{ID: 5, Type: RuleVacancyRate, Condition: nil, DiscountPercentage: 50, Active: true},
	}

	assert.InDelta(t, 15.0, TotalDiscount(rules, ctx), 1e-9)
}

func TestTotalDiscountIsNotClamped(t *testing.T) {
	ctx := EvalContext{Now: at(12, 15)}
	rules := []Rule{
		{Type: RuleTimeOfDay, Condition: TimeOfDay{StartHour: 0, EndHour: 24}, DiscountPercentage: 80, Active: true},
		{Type: RuleDayOfWeek, Condition: DayOfWeek{Days: []int{0}}, DiscountPercentage: 70, Active: true},
	}
	assert.InDelta(t, 150.0, TotalDiscount(rules, ctx), 1e-9)
}

func TestTotalDiscountIsMonotone(t *testing.T) {
	ctx := EvalContext{Now: at(14, 9), StockQuantity: 3, Store: StoreContext{LineLength: 2, VacancyRate: 60}}
	base := []Rule{
		{Type: RuleTimeOfDay, Condition: TimeOfDay{StartHour: 8, EndHour: 12}, DiscountPercentage: 5, Active: true},
		{Type: RuleStockLevel, Condition: StockLevel{MinStock: 0, MaxStock: 5}, DiscountPercentage: 12, Active: true},
		{Type: RuleQueueLength, Condition: QueueLength{MinLength: 4}, DiscountPercentage: 9, Active: true},
		{Type: RuleVacancyRate, Condition: VacancyRate{MinRate: 50}, DiscountPercentage: 3, Active: true},
	}
	before := TotalDiscount(base, ctx)

	for i := range base {
		for _, bump := range []float64{0.5, 10, 250} {
			rules := append([]Rule(nil), base...)
			rules[i].DiscountPercentage += bump
			assert.GreaterOrEqualf(t, TotalDiscount(rules, ctx), before, "rule %d bumped by %g", i, bump)
		}
	}
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		name    string
		typ     RuleType
		raw     string
		want    Condition
		wantErr bool
	}{
		{name: "time of day", typ: RuleTimeOfDay, raw: `{"start_hour":14,"end_hour":17}`, want: TimeOfDay{StartHour: 14, EndHour: 17}},
		{name: "day of week", typ: RuleDayOfWeek, raw: `{"days":[0,6]}`, want: DayOfWeek{Days: []int{0, 6}}},
		{name: "stock level", typ: RuleStockLevel, raw: `{"min_stock":10,"max_stock":50}`, want: StockLevel{MinStock: 10, MaxStock: 50}},
		{name: "line length", typ: RuleQueueLength, raw: `{"min_length":5}`, want: QueueLength{MinLength: 5}},
		{name: "vacancy rate", typ: RuleVacancyRate, raw: `{"min_rate":50.5}`, want: VacancyRate{MinRate: 50.5}},
		{name: "unknown type", typ: RuleType("weather"), raw: `{}`, wantErr: true},
		{name: "not json", typ: RuleTimeOfDay, raw: `start=14`, wantErr: true},
		{name: "empty", typ: RuleTimeOfDay, raw: ``, wantErr: true},
		{name: "missing end hour", typ: RuleTimeOfDay, raw: `{"start_hour":14}`, wantErr: true},
		{name: "hour out of range", typ: RuleTimeOfDay, raw: `{"start_hour":14,"end_hour":30}`, wantErr: true},
		{name: "day out of range", typ: RuleDayOfWeek, raw: `{"days":[7]}`, wantErr: true},
		{name: "days wrong type", typ: RuleDayOfWeek, raw: `{"days":"monday"}`, wantErr: true},
		{name: "missing min rate", typ: RuleVacancyRate, raw: `{"rate":50}`, wantErr: true},
		{name: "array payload", typ: RuleQueueLength, raw: `[5]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCondition(tt.typ, []byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperr.ErrValidation), "want validation error, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.typ, got.Type())
		})
	}
}

func TestValidateDiscount(t *testing.T) {
	assert.NoError(t, ValidateDiscount(0))
	assert.NoError(t, ValidateDiscount(100))
	assert.ErrorIs(t, ValidateDiscount(-1), apperr.ErrValidation)
	assert.ErrorIs(t, ValidateDiscount(100.01), apperr.ErrValidation)
}
