package forecast

import (
	"sort"
	"strconv"
)

// OneHotEncoder maps the categorical features (product, weekday, month) to
// indicator columns. Categories are fixed when the encoder is fitted; values
// never seen during fitting encode to all zeros.
type OneHotEncoder struct {
	Products []uint `json:"products"`
	Weekdays []int  `json:"weekdays"`
	Months   []int  `json:"months"`
}

// FitEncoder collects the sorted distinct categories present in rows
func FitEncoder(rows []DailyRow) *OneHotEncoder {
	products := make(map[uint]struct{})
	weekdays := make(map[int]struct{})
	months := make(map[int]struct{})
	for _, r := range rows {
		products[r.ProductID] = struct{}{}
		weekdays[r.Weekday()] = struct{}{}
		months[r.Month()] = struct{}{}
	}

	e := &OneHotEncoder{}
	for p := range products {
		e.Products = append(e.Products, p)
	}
	for d := range weekdays {
		e.Weekdays = append(e.Weekdays, d)
	}
	for m := range months {
		e.Months = append(e.Months, m)
	}
	sort.Slice(e.Products, func(i, j int) bool { return e.Products[i] < e.Products[j] })
	sort.Ints(e.Weekdays)
	sort.Ints(e.Months)
	return e
}

// Width is the number of indicator columns the encoder produces
func (e *OneHotEncoder) Width() int {
	return len(e.Products) + len(e.Weekdays) + len(e.Months)
}

// FeatureNames lists the encoded columns followed by the numeric ones
func (e *OneHotEncoder) FeatureNames() []string {
	names := make([]string, 0, e.Width()+numericFeatures)
	for _, p := range e.Products {
		names = append(names, "product_id_"+strconv.FormatUint(uint64(p), 10))
	}
	for _, d := range e.Weekdays {
		names = append(names, "day_of_week_"+strconv.Itoa(d))
	}
	for _, m := range e.Months {
		names = append(names, "month_"+strconv.Itoa(m))
	}
	return append(names, "day", "hour", "price")
}

// Features writes the full feature vector for row into dst, which must have
// length Width()+numericFeatures.
func (e *OneHotEncoder) Features(row DailyRow, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	offset := 0
	if i := sort.Search(len(e.Products), func(i int) bool { return e.Products[i] >= row.ProductID }); i < len(e.Products) && e.Products[i] == row.ProductID {
		dst[offset+i] = 1
	}
	offset += len(e.Products)
	if i := sort.SearchInts(e.Weekdays, row.Weekday()); i < len(e.Weekdays) && e.Weekdays[i] == row.Weekday() {
		dst[offset+i] = 1
	}
	offset += len(e.Weekdays)
	if i := sort.SearchInts(e.Months, row.Month()); i < len(e.Months) && e.Months[i] == row.Month() {
		dst[offset+i] = 1
	}
	offset += len(e.Months)

	dst[offset] = float64(row.Day.Day())
	dst[offset+1] = float64(row.Hour)
	dst[offset+2] = row.Price
}
