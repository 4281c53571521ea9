package service

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"socksflow_backend/internal/model"
	"socksflow_backend/pkg/plan"
)

type OrderService struct {
	db *gorm.DB

	// suffix generates the random digits of an order number; a field so
	// tests can force collisions against the regeneration loop.
	suffix func(n int) string
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db, suffix: randomDigits}
}

// WithTx returns a copy of the service bound to the given transaction.
func (s *OrderService) WithTx(tx *gorm.DB) *OrderService {
	return &OrderService{db: tx, suffix: s.suffix}
}

type OrderCreateInput struct {
	SubscriptionID  *uint
	TotalAmount     decimal.Decimal
	Items           interface{}
	ShippingAddress interface{}
}

func (s *OrderService) GetByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := s.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) GetByOrderNumber(orderNumber string) (*model.Order, error) {
	var order model.Order
	if err := s.db.Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderNumber, ErrNotFound)
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) GetByUser(userID uint, offset, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := s.db.Model(&model.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []model.Order
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

// GetPendingBySubscription returns the newest unpaid order for a
// subscription, if any.
func (s *OrderService) GetPendingBySubscription(subscriptionID uint) (*model.Order, error) {
	var order model.Order
	err := s.db.Where("subscription_id = ? AND status = ?", subscriptionID, model.OrderPending).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no pending order for subscription %d: %w", subscriptionID, ErrNotFound)
		}
		return nil, err
	}
	return &order, nil
}

// generateOrderNumber builds a candidate like SO202402150001. Collisions are
// possible, so Create regenerates until the number is unused.
func (s *OrderService) generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("SO%s%s", now.Format("20060102"), s.suffix(4))
}

func randomDigits(n int) string {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		panic(err)
	}
	return fmt.Sprintf("%0*d", n, v)
}

// nextOrderNumber returns a number guaranteed unused at generation time.
func (s *OrderService) nextOrderNumber() (string, error) {
	for {
		candidate := s.generateOrderNumber(time.Now().UTC())
		var count int64
		if err := s.db.Model(&model.Order{}).Where("order_number = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
}

func (s *OrderService) Create(userID uint, input OrderCreateInput) (*model.Order, error) {
	orderNumber, err := s.nextOrderNumber()
	if err != nil {
		return nil, err
	}

	items, err := json.Marshal(input.Items)
	if err != nil {
		return nil, fmt.Errorf("invalid order items: %w", ErrValidation)
	}
	shippingAddress, err := json.Marshal(input.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid shipping address: %w", ErrValidation)
	}

	order := model.Order{
		OrderNumber:     orderNumber,
		UserID:          userID,
		SubscriptionID:  input.SubscriptionID,
		Status:          model.OrderPending,
		TotalAmount:     input.TotalAmount,
		Items:           items,
		ShippingAddress: shippingAddress,
	}

	if err := s.db.Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateFromSubscription derives the line items and total from the
// subscription's plan and links the order back to it.
func (s *OrderService) CreateFromSubscription(userID uint, sub *model.Subscription, shippingAddress interface{}, months int) (*model.Order, error) {
	if months < 1 {
		months = 1
	}

	total, err := plan.CalculatePrice(sub.PlanCode, months)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrValidation)
	}

	items, err := plan.Items(sub.PlanCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrValidation)
	}
	for i := range items {
		items[i].Subtotal = total
		if months > 1 {
			items[i].Description = fmt.Sprintf("%d-month subscription - %s", months, items[i].Description)
		}
	}

	return s.Create(userID, OrderCreateInput{
		SubscriptionID:  &sub.ID,
		TotalAmount:     total,
		Items:           items,
		ShippingAddress: shippingAddress,
	})
}

func (s *OrderService) MarkAsPaid(order *model.Order) (*model.Order, error) {
	if order.Status != model.OrderPending {
		return nil, fmt.Errorf("only pending orders can be marked paid: %w", ErrInvalidState)
	}

	now := time.Now().UTC()
	order.Status = model.OrderPaid
	order.PaidAt = &now

	if err := s.db.Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) MarkAsShipped(order *model.Order, trackingNumber string) (*model.Order, error) {
	if order.Status != model.OrderPaid {
		return nil, fmt.Errorf("only paid orders can be shipped: %w", ErrInvalidState)
	}
	if trackingNumber == "" {
		return nil, fmt.Errorf("tracking number is required: %w", ErrValidation)
	}

	now := time.Now().UTC()
	order.Status = model.OrderShipped
	order.TrackingNumber = trackingNumber
	order.ShippedAt = &now

	if err := s.db.Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) MarkAsDelivered(order *model.Order) (*model.Order, error) {
	if order.Status != model.OrderShipped {
		return nil, fmt.Errorf("only shipped orders can be marked delivered: %w", ErrInvalidState)
	}

	now := time.Now().UTC()
	order.Status = model.OrderDelivered
	order.DeliveredAt = &now

	if err := s.db.Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel does not trigger a refund; refunding a paid order is a separate,
// explicit payment operation.
func (s *OrderService) Cancel(order *model.Order) (*model.Order, error) {
	if !s.CanCancel(order) {
		return nil, fmt.Errorf("a %s order cannot be cancelled: %w", order.Status, ErrInvalidState)
	}

	order.Status = model.OrderCancelled
	if err := s.db.Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// CanCancel mirrors the Cancel precondition so callers can pre-check
// instead of probing with a failing mutation.
func (s *OrderService) CanCancel(order *model.Order) bool {
	return order.Status == model.OrderPending || order.Status == model.OrderPaid
}
