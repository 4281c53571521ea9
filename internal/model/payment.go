package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

type PaymentProvider string

const (
	ProviderAlipay PaymentProvider = "alipay"
	ProviderWechat PaymentProvider = "wechat"
)

type Payment struct {
	gorm.Model
	// Format: PAY + yyyymmdd + 8 random digits
	PaymentNo string `json:"payment_no" gorm:"size:32;uniqueIndex;not null"`

	UserID  uint `json:"user_id" gorm:"index;not null"`
	OrderID uint `json:"order_id" gorm:"index;not null"`

	Amount   decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Provider PaymentProvider `json:"provider" gorm:"size:20;not null"`
	Status   PaymentStatus   `json:"status" gorm:"size:20;default:'pending';index"`

	// Provider trade number, set on success.
	TransactionID string `json:"transaction_id" gorm:"size:100"`

	// Raw callback/query payload, kept for audit regardless of outcome.
	ProviderResponse datatypes.JSON `json:"provider_response"`

	PaidAt *time.Time `json:"paid_at"`

	User  User  `json:"-" gorm:"foreignKey:UserID"`
	Order Order `json:"-" gorm:"foreignKey:OrderID"`
}
