package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPaused    SubscriptionStatus = "paused"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

type Subscription struct {
	gorm.Model
	UserID   uint               `json:"user_id" gorm:"index;not null"`
	PlanCode string             `json:"plan_code" gorm:"size:50;not null"`
	PlanName string             `json:"plan_name" gorm:"size:100;not null"`
	Status   SubscriptionStatus `json:"status" gorm:"size:20;default:'active';index"`

	// Snapshotted at creation; later catalog price changes do not affect
	// existing subscriptions.
	PriceMonthly decimal.Decimal `json:"price_monthly" gorm:"type:decimal(10,2);not null"`

	PaymentMethod string `json:"payment_method" gorm:"size:20;default:'alipay'"`
	AutoRenew     bool   `json:"auto_renew" gorm:"default:true"`

	StartedAt      time.Time  `json:"started_at"`
	ExpiresAt      *time.Time `json:"expires_at"`
	NextDeliveryAt *time.Time `json:"next_delivery_at"`
	CancelledAt    *time.Time `json:"cancelled_at"`

	DeliveryFrequency int            `json:"delivery_frequency" gorm:"default:1"`
	StylePreferences  datatypes.JSON `json:"style_preferences"`
	SizeProfileID     *uint          `json:"size_profile_id"`

	User        User         `json:"-" gorm:"foreignKey:UserID"`
	SizeProfile *SizeProfile `json:"-" gorm:"foreignKey:SizeProfileID"`
	Orders      []Order      `json:"-"`
}
