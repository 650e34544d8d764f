package models

import (
	"time"

	"gorm.io/gorm"
)

// Laundry represents a laundry shop listed on the marketplace.
// Rating, TotalReviews, TotalOrders and ServicesCount are derived values
// and are only written by the stats aggregator.
type Laundry struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OwnerID       uint           `gorm:"not null;index" json:"owner_id"` // foreign key to users table
	Owner         User           `gorm:"foreignKey:OwnerID" json:"-"`
	Name          string         `gorm:"not null" json:"name"`
	Address       string         `gorm:"not null" json:"address"`
	City          string         `gorm:"index" json:"city"`
	Latitude      float64        `json:"latitude"`
	Longitude     float64        `json:"longitude"`
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	Rating        float64        `gorm:"not null;default:0" json:"rating"`
	TotalReviews  int            `gorm:"not null;default:0" json:"total_reviews"`
	TotalOrders   int            `gorm:"not null;default:0" json:"total_orders"`
	ServicesCount int            `gorm:"not null;default:0" json:"services_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Laundry model
func (Laundry) TableName() string {
	return "laundries"
}
