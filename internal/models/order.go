package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. Transitions between states
// are restricted; see CanTransitionTo.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusShipping  OrderStatus = "SHIPPING"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Payment defaults. PaymentStatus is derived once at creation and is not
// touched by status transitions.
const (
	PaymentMethodCOD    = "COD"
	PaymentStatusPaid   = "PAID"
	PaymentStatusUnpaid = "UNPAID"
)

var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipping, StatusCancelled},
	StatusShipping:  {StatusDelivered, StatusCancelled},
}

// ParseOrderStatus parses a requested status, ignoring case and surrounding
// whitespace.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusShipping:
		return StatusShipping, nil
	case StatusDelivered:
		return StatusDelivered, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown order status: %q", s)
	}
}

// IsTerminal reports whether no further transitions are permitted from s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether an order in state s may move to target.
// A same-state transition is always allowed (idempotent re-submission).
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s == target {
		return true
	}
	for _, allowed := range allowedTransitions[s] {
		if target == allowed {
			return true
		}
	}
	return false
}

// Order is the aggregate root for a customer order. TotalAmount and the item
// snapshots are fixed at creation; only Status and UpdatedAt change afterward.
type Order struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	UserID          uint            `json:"user_id" gorm:"index;not null"`
	CustomerName    string          `json:"customer_name" gorm:"type:varchar(255);not null"`
	ShippingAddress string          `json:"shipping_address" gorm:"type:varchar(500);not null"`
	PhoneNumber     string          `json:"phone_number" gorm:"type:varchar(20);not null"`
	Note            string          `json:"note" gorm:"type:text"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	PaymentMethod   string          `json:"payment_method" gorm:"type:varchar(50)"`
	PaymentStatus   string          `json:"payment_status" gorm:"type:varchar(20)"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	Items           []OrderItem     `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is a line of an order. ProductName, ProductImage and Price are a
// point-in-time snapshot of the catalog record, so later catalog changes do
// not affect placed orders. ProductID is a weak reference only.
type OrderItem struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	OrderID      uint            `json:"-" gorm:"index;not null"`
	ProductID    uint            `json:"product_id" gorm:"not null"`
	ProductName  string          `json:"product_name" gorm:"type:varchar(255);not null"`
	ProductImage string          `json:"product_image" gorm:"type:varchar(500)"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Quantity     int             `json:"quantity" gorm:"not null"`
	Note         string          `json:"note" gorm:"type:text"`
}

// Subtotal returns price multiplied by quantity for this line.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
