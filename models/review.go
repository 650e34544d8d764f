package models

import "time"

// Review is a customer's rating of a delivered order. One per order.
type Review struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	OrderID        uint       `gorm:"not null;uniqueIndex" json:"order_id"`
	CustomerID     uint       `gorm:"not null;index" json:"customer_id"`
	LaundryID      uint       `gorm:"not null;index" json:"laundry_id"`
	Rating         int        `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	ServiceRating  *int       `json:"service_rating"`
	DeliveryRating *int       `json:"delivery_rating"`
	ValueRating    *int       `json:"value_rating"`
	Comment        *string    `json:"comment"`
	IsVisible      bool       `gorm:"not null;default:true" json:"is_visible"`
	LaundryReply   *string    `json:"laundry_reply"`
	RepliedAt      *time.Time `json:"replied_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}
