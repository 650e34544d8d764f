package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserTableName(t *testing.T) {
	user := User{}
	assert.Equal(t, "users", user.TableName(), "Table name should be 'users'")
}

func TestUserDefaultValues(t *testing.T) {
	user := User{
		Phone: "+923001234567",
	}

	assert.Equal(t, "+923001234567", user.Phone, "Phone should be set")
	assert.Equal(t, "", user.Role, "Role should be empty string by default in Go struct")
}

func TestTableNames(t *testing.T) {
	tests := []struct {
		name  string
		model interface{ TableName() string }
		want  string
	}{
		{"laundry", Laundry{}, "laundries"},
		{"laundry service", LaundryService{}, "laundry_services"},
		{"service pricing", ServicePricing{}, "service_pricings"},
		{"order", Order{}, "orders"},
		{"order item", OrderItem{}, "order_items"},
		{"order timeline", OrderTimeline{}, "order_timelines"},
		{"status history", StatusHistory{}, "order_status_histories"},
		{"payment", Payment{}, "payments"},
		{"review", Review{}, "reviews"},
		{"promo code", PromoCode{}, "promo_codes"},
		{"notification", Notification{}, "notifications"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.model.TableName())
		})
	}
}

func TestAllModelsRegistered(t *testing.T) {
	assert.Len(t, All(), 14)
}
