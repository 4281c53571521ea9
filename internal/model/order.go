package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

type Order struct {
	gorm.Model
	// Format: SO + yyyymmdd + 4 random digits, e.g. SO202402150001
	OrderNumber string `json:"order_number" gorm:"size:20;uniqueIndex;not null"`

	UserID         uint        `json:"user_id" gorm:"index;not null"`
	SubscriptionID *uint       `json:"subscription_id" gorm:"index"`
	Status         OrderStatus `json:"status" gorm:"size:20;default:'pending';index"`

	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null"`

	// Snapshots, not live references: editing an address later must not
	// rewrite order history.
	Items           datatypes.JSON `json:"items" gorm:"not null"`
	ShippingAddress datatypes.JSON `json:"shipping_address" gorm:"not null"`

	TrackingNumber string `json:"tracking_number" gorm:"size:100"`

	PaidAt      *time.Time `json:"paid_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`

	User         User          `json:"-" gorm:"foreignKey:UserID"`
	Subscription *Subscription `json:"-" gorm:"foreignKey:SubscriptionID"`
	Payments     []Payment     `json:"-"`
}
