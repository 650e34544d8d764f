package models

// All returns every model in migration order
func All() []any {
	return []any{
		&User{},
		&Laundry{},
		&ServiceCategory{},
		&ClothingItem{},
		&LaundryService{},
		&ServicePricing{},
		&PromoCode{},
		&Order{},
		&OrderItem{},
		&OrderTimeline{},
		&StatusHistory{},
		&Payment{},
		&Review{},
		&Notification{},
	}
}
