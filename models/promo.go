package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Discount types
const (
	DiscountPercentage = "PERCENTAGE"
	DiscountFixed      = "FIXED"
)

// PromoCode is an admin-managed discount code.
// UsedCount only ever grows and is bounded by UsageLimit when set.
type PromoCode struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	Code           string           `gorm:"uniqueIndex;not null;size:32" json:"code"`
	Description    string           `json:"description"`
	DiscountType   string           `gorm:"not null" json:"discount_type"`
	DiscountValue  decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"discount_value"`
	MaxDiscount    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"max_discount"`
	MinOrderAmount decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"min_order_amount"`
	ValidFrom      time.Time        `gorm:"not null" json:"valid_from"`
	ValidUntil     time.Time        `gorm:"not null" json:"valid_until"`
	UsageLimit     *int             `json:"usage_limit"`
	UsedCount      int              `gorm:"not null;default:0" json:"used_count"`
	FirstOrderOnly bool             `gorm:"not null;default:false" json:"first_order_only"`
	IsActive       bool             `gorm:"not null;default:true" json:"is_active"`
	Laundries      []Laundry        `gorm:"many2many:promo_code_laundries;" json:"laundries,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TableName specifies the table name for the PromoCode model
func (PromoCode) TableName() string {
	return "promo_codes"
}

// LaundryIDs returns the allow-list as plain ids
func (p PromoCode) LaundryIDs() []uint {
	ids := make([]uint, 0, len(p.Laundries))
	for _, l := range p.Laundries {
		ids = append(ids, l.ID)
	}
	return ids
}
