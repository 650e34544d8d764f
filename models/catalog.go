package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price units
const (
	PricePerPiece = "PER_PIECE"
	PricePerKg    = "PER_KG"
)

// ServiceCategory is global reference data (washing, dry cleaning, ironing...)
type ServiceCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for the ServiceCategory model
func (ServiceCategory) TableName() string {
	return "service_categories"
}

// ClothingItem is global reference data (shirt, trousers, bedsheet...)
type ClothingItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Category  string    `gorm:"index" json:"category"` // MEN, WOMEN, KIDS, HOUSEHOLD
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the ClothingItem model
func (ClothingItem) TableName() string {
	return "clothing_items"
}

// LaundryService is a service a laundry offers within a category
type LaundryService struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	LaundryID      uint             `gorm:"not null;index" json:"laundry_id"`
	CategoryID     uint             `gorm:"not null;index" json:"category_id"`
	Category       ServiceCategory  `gorm:"foreignKey:CategoryID" json:"category"`
	Name           string           `gorm:"not null" json:"name"`
	Description    string           `json:"description"`
	EstimatedHours int              `gorm:"not null;default:48" json:"estimated_hours"`
	IsAvailable    bool             `gorm:"not null" json:"is_available"`
	Pricing        []ServicePricing `gorm:"foreignKey:ServiceID" json:"pricing,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TableName specifies the table name for the LaundryService model
func (LaundryService) TableName() string {
	return "laundry_services"
}

// ServicePricing is a laundry's price for a (service, clothing item) pair.
// (service_id, clothing_item_id) is the natural key.
type ServicePricing struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	ServiceID      uint             `gorm:"not null;uniqueIndex:idx_pricing_service_item" json:"service_id"`
	ClothingItemID uint             `gorm:"not null;uniqueIndex:idx_pricing_service_item" json:"clothing_item_id"`
	ClothingItem   ClothingItem     `gorm:"foreignKey:ClothingItemID" json:"clothing_item"`
	Price          decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	ExpressPrice   *decimal.Decimal `gorm:"type:decimal(12,2)" json:"express_price"`
	PriceUnit      string           `gorm:"not null;default:'PER_PIECE'" json:"price_unit"`
	IsAvailable    bool             `gorm:"not null" json:"is_available"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TableName specifies the table name for the ServicePricing model
func (ServicePricing) TableName() string {
	return "service_pricings"
}
