package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleCustomer = "CUSTOMER"
	RoleLaundry  = "LAUNDRY"
	RoleAdmin    = "ADMIN"
)

// User represents an account in the system (customer, laundry owner or admin)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Phone     string         `gorm:"uniqueIndex;not null" json:"phone"` // E.164, verified through OTP
	Name      string         `gorm:"not null" json:"name"`
	Email     *string        `json:"email,omitempty"`
	Role      string         `gorm:"not null;default:'CUSTOMER'" json:"role"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
