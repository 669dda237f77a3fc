package forecast

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// SaleRecord is one historical sale line: what sold, when, how many, at what price
type SaleRecord struct {
	Timestamp time.Time `json:"timestamp"`
	ProductID uint      `json:"product_id"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
}

// DailyRow is the model's unit of observation: one product on one day
type DailyRow struct {
	Day       time.Time `json:"day"`
	Hour      int       `json:"hour"`
	ProductID uint      `json:"product_id"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
}

// Weekday returns 0 for Monday through 6 for Sunday
func (r DailyRow) Weekday() int {
	return (int(r.Day.Weekday()) + 6) % 7
}

// Month returns 1..12
func (r DailyRow) Month() int {
	return int(r.Day.Month())
}

// numericFeatures are appended after the one-hot block: day of month, hour, price
const numericFeatures = 3

func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

type dayKey struct {
	day       time.Time
	productID uint
}

// Aggregate collapses raw sales into one row per (UTC day, product) with the
// summed quantity and the mean sale price. The hour feature is the hour of
// the earliest sale in the group. Rows come back ordered by day, then product.
func Aggregate(history []SaleRecord) []DailyRow {
	type bucket struct {
		first    time.Time
		quantity float64
		prices   []float64
	}
	buckets := make(map[dayKey]*bucket)
	for _, s := range history {
		k := dayKey{day: dayOf(s.Timestamp), productID: s.ProductID}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{first: s.Timestamp.UTC()}
			buckets[k] = b
		}
		if s.Timestamp.Before(b.first) {
			b.first = s.Timestamp.UTC()
		}
		b.quantity += s.Quantity
		b.prices = append(b.prices, s.Price)
	}

	rows := make([]DailyRow, 0, len(buckets))
	for k, b := range buckets {
		rows = append(rows, DailyRow{
			Day:       k.day,
			Hour:      b.first.Hour(),
			ProductID: k.productID,
			Quantity:  b.quantity,
			Price:     stat.Mean(b.prices, nil),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Day.Equal(rows[j].Day) {
			return rows[i].Day.Before(rows[j].Day)
		}
		return rows[i].ProductID < rows[j].ProductID
	})
	return rows
}

// filterProduct returns the sales of a single product
func filterProduct(history []SaleRecord, productID uint) []SaleRecord {
	var out []SaleRecord
	for _, s := range history {
		if s.ProductID == productID {
			out = append(out, s)
		}
	}
	return out
}
