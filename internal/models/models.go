package models

// All lists every persisted model in migration order
func All() []interface{} {
	return []interface{}{
		&Product{},
		&ProfitGroup{},
		&PricingRule{},
		&StoreStatus{},
		&Customer{},
		&Sale{},
		&SaleItem{},
		&StaffUser{},
		&PriceChange{},
		&DemandModelSnapshot{},
	}
}
