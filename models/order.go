package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is the lifecycle status of an order
type OrderStatus string

const (
	StatusPending         OrderStatus = "PENDING"
	StatusAccepted        OrderStatus = "ACCEPTED"
	StatusPickupScheduled OrderStatus = "PICKUP_SCHEDULED"
	StatusPickedUp        OrderStatus = "PICKED_UP"
	StatusProcessing      OrderStatus = "PROCESSING"
	StatusReady           OrderStatus = "READY"
	StatusOutForDelivery  OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered       OrderStatus = "DELIVERED"
	StatusCompleted       OrderStatus = "COMPLETED"
	StatusCancelled       OrderStatus = "CANCELLED"
	StatusRejected        OrderStatus = "REJECTED"
)

// OrderType selects standard or express handling
type OrderType string

const (
	OrderTypeStandard OrderType = "STANDARD"
	OrderTypeExpress  OrderType = "EXPRESS"
)

// Payment methods
const (
	PaymentCOD       = "COD"
	PaymentJazzCash  = "JAZZCASH"
	PaymentEasyPaisa = "EASYPAISA"
	PaymentCard      = "CARD"
)

// Payment statuses
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusRefunded  = "REFUNDED"
)

// Order is a single pickup-to-delivery transaction between a customer and a laundry
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderNumber string      `gorm:"uniqueIndex;not null;size:32" json:"order_number"`
	CustomerID  uint        `gorm:"not null;index" json:"customer_id"` // foreign key to users table
	Customer    User        `gorm:"foreignKey:CustomerID" json:"-"`
	LaundryID   uint        `gorm:"not null;index" json:"laundry_id"`
	Laundry     Laundry     `gorm:"foreignKey:LaundryID" json:"-"`
	Status      OrderStatus `gorm:"not null;default:'PENDING';index" json:"status"`
	OrderType   OrderType   `gorm:"not null;default:'STANDARD'" json:"order_type"`

	PickupAddress       string    `gorm:"not null" json:"pickup_address"`
	PickupLatitude      *float64  `json:"pickup_latitude"`
	PickupLongitude     *float64  `json:"pickup_longitude"`
	PickupDate          time.Time `gorm:"not null" json:"pickup_date"`
	PickupTimeSlot      string    `json:"pickup_time_slot"`
	DeliveryAddress     string    `gorm:"not null" json:"delivery_address"`
	DeliveryLatitude    *float64  `json:"delivery_latitude"`
	DeliveryLongitude   *float64  `json:"delivery_longitude"`
	SpecialInstructions *string   `json:"special_instructions"`

	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DeliveryFee decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"delivery_fee"`
	ExpressFee  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"express_fee"`
	Discount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`

	PromoCode          *string `json:"promo_code"`
	PaymentMethod      string  `gorm:"not null;default:'COD'" json:"payment_method"`
	CancellationReason *string `json:"cancellation_reason"`
	RejectionReason    *string `json:"rejection_reason"`

	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date"`
	AcceptedAt           *time.Time `json:"accepted_at"`
	PickupScheduledAt    *time.Time `json:"pickup_scheduled_at"`
	PickedUpAt           *time.Time `json:"picked_up_at"`
	ProcessingAt         *time.Time `json:"processing_at"`
	ReadyAt              *time.Time `json:"ready_at"`
	OutForDeliveryAt     *time.Time `json:"out_for_delivery_at"`
	DeliveredAt          *time.Time `json:"delivered_at"`
	CompletedAt          *time.Time `json:"completed_at"`
	CancelledAt          *time.Time `json:"cancelled_at"`
	RejectedAt           *time.Time `json:"rejected_at"`

	Items    []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Timeline []OrderTimeline `gorm:"foreignKey:OrderID" json:"timeline,omitempty"`
	Payment  *Payment        `gorm:"foreignKey:OrderID" json:"payment,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one priced line of an order. Prices are frozen at creation.
type OrderItem struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	OrderID        uint             `gorm:"not null;index" json:"order_id"`
	ServiceID      uint             `gorm:"not null" json:"service_id"`
	ClothingItemID uint             `gorm:"not null" json:"clothing_item_id"`
	ItemName       string           `json:"item_name"`
	ServiceName    string           `json:"service_name"`
	Quantity       int              `gorm:"not null;default:1" json:"quantity"`
	WeightKg       *decimal.Decimal `gorm:"type:decimal(8,2)" json:"weight_kg"`
	PriceUnit      string           `gorm:"not null" json:"price_unit"`
	UnitPrice      decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice     decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"total_price"`
	SpecialNotes   *string          `json:"special_notes"`
	CreatedAt      time.Time        `json:"created_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderTimeline is the customer-facing, append-only event log of an order
type OrderTimeline struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	Event       string    `gorm:"not null" json:"event"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for the OrderTimeline model
func (OrderTimeline) TableName() string {
	return "order_timelines"
}

// StatusHistory is the audit record of every status change
type StatusHistory struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	OrderID    uint         `gorm:"not null;index" json:"order_id"`
	FromStatus *OrderStatus `json:"from_status"`
	ToStatus   OrderStatus  `gorm:"not null" json:"to_status"`
	ChangedBy  *uint        `json:"changed_by"`
	Notes      *string      `json:"notes"`
	CreatedAt  time.Time    `json:"created_at"`
}

// TableName specifies the table name for the StatusHistory model
func (StatusHistory) TableName() string {
	return "order_status_histories"
}

// Payment records how an order is settled. Exactly one per order.
type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"not null;uniqueIndex" json:"order_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method        string          `gorm:"not null" json:"method"`
	Status        string          `gorm:"not null;default:'PENDING'" json:"status"`
	TransactionID *string         `json:"transaction_id"`
	PaidAt        *time.Time      `json:"paid_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
