package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"socksflow_backend/internal/model"
	"socksflow_backend/pkg/plan"
)

// Fixed policy constants: a subscription period is 30 days and the first
// (or next, after a resume) delivery goes out 7 days in.
const (
	subscriptionPeriodDays = 30
	deliveryLeadDays       = 7
)

type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// WithTx returns a copy of the service bound to the given transaction.
func (s *SubscriptionService) WithTx(tx *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: tx}
}

type SubscriptionCreateInput struct {
	PlanCode          string                 `json:"plan_code" validate:"required"`
	DeliveryFrequency int                    `json:"delivery_frequency"`
	StylePreferences  map[string]interface{} `json:"style_preferences"`
	PaymentMethod     string                 `json:"payment_method"`
	AutoRenew         *bool                  `json:"auto_renew"`
	SizeProfileID     *uint                  `json:"size_profile_id"`
}

type SubscriptionUpdateInput struct {
	DeliveryFrequency *int                   `json:"delivery_frequency"`
	StylePreferences  map[string]interface{} `json:"style_preferences"`
	AutoRenew         *bool                  `json:"auto_renew"`
	SizeProfileID     *uint                  `json:"size_profile_id"`
}

func (s *SubscriptionService) GetByID(id uint) (*model.Subscription, error) {
	var sub model.Subscription
	if err := s.db.First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("subscription %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &sub, nil
}

func (s *SubscriptionService) GetByUser(userID uint) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (s *SubscriptionService) GetActiveByUser(userID uint) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.Where("user_id = ? AND status = ?", userID, model.SubscriptionActive).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no active subscription: %w", ErrNotFound)
		}
		return nil, err
	}
	return &sub, nil
}

// Create starts a new subscription. The plan name and monthly price are
// snapshotted so later catalog changes leave existing subscriptions alone.
// The one-active-per-user check runs inside the transaction; the partial
// unique index on (user_id) WHERE status='active' backs it under
// concurrent creates.
func (s *SubscriptionService) Create(userID uint, input SubscriptionCreateInput) (*model.Subscription, error) {
	p, err := plan.Get(input.PlanCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrValidation)
	}

	var prefs []byte
	if input.StylePreferences != nil {
		prefs, err = json.Marshal(input.StylePreferences)
		if err != nil {
			return nil, fmt.Errorf("invalid style preferences: %w", ErrValidation)
		}
	}

	now := time.Now().UTC()
	expiresAt := now.AddDate(0, 0, subscriptionPeriodDays)
	nextDeliveryAt := now.AddDate(0, 0, deliveryLeadDays)

	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = string(model.ProviderAlipay)
	}
	deliveryFrequency := input.DeliveryFrequency
	if deliveryFrequency < 1 {
		deliveryFrequency = 1
	}
	autoRenew := true
	if input.AutoRenew != nil {
		autoRenew = *input.AutoRenew
	}

	sub := model.Subscription{
		UserID:            userID,
		PlanCode:          string(p.Code),
		PlanName:          p.Name,
		Status:            model.SubscriptionActive,
		PriceMonthly:      p.PriceMonthly,
		PaymentMethod:     paymentMethod,
		AutoRenew:         autoRenew,
		StartedAt:         now,
		ExpiresAt:         &expiresAt,
		NextDeliveryAt:    &nextDeliveryAt,
		DeliveryFrequency: deliveryFrequency,
		StylePreferences:  prefs,
		SizeProfileID:     input.SizeProfileID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Subscription{}).
			Where("user_id = ? AND status = ?", userID, model.SubscriptionActive).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("user already has an active subscription: %w", ErrValidation)
		}
		return tx.Create(&sub).Error
	})
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

// Update changes preference fields only; cancelled and expired
// subscriptions reject any update.
func (s *SubscriptionService) Update(sub *model.Subscription, input SubscriptionUpdateInput) (*model.Subscription, error) {
	if sub.Status == model.SubscriptionCancelled || sub.Status == model.SubscriptionExpired {
		return nil, fmt.Errorf("cannot update a %s subscription: %w", sub.Status, ErrInvalidState)
	}

	if input.DeliveryFrequency != nil {
		sub.DeliveryFrequency = *input.DeliveryFrequency
	}
	if input.StylePreferences != nil {
		prefs, err := json.Marshal(input.StylePreferences)
		if err != nil {
			return nil, fmt.Errorf("invalid style preferences: %w", ErrValidation)
		}
		sub.StylePreferences = prefs
	}
	if input.AutoRenew != nil {
		sub.AutoRenew = *input.AutoRenew
	}
	if input.SizeProfileID != nil {
		sub.SizeProfileID = input.SizeProfileID
	}

	if err := s.db.Save(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) Pause(sub *model.Subscription) (*model.Subscription, error) {
	if sub.Status != model.SubscriptionActive {
		return nil, fmt.Errorf("only active subscriptions can be paused: %w", ErrInvalidState)
	}

	sub.Status = model.SubscriptionPaused
	if err := s.db.Save(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) Resume(sub *model.Subscription) (*model.Subscription, error) {
	if sub.Status != model.SubscriptionPaused {
		return nil, fmt.Errorf("only paused subscriptions can be resumed: %w", ErrInvalidState)
	}

	nextDeliveryAt := time.Now().UTC().AddDate(0, 0, deliveryLeadDays)
	sub.Status = model.SubscriptionActive
	sub.NextDeliveryAt = &nextDeliveryAt

	if err := s.db.Save(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// Cancel takes effect immediately: the expiry collapses to now instead of
// running out the paid period.
func (s *SubscriptionService) Cancel(sub *model.Subscription) (*model.Subscription, error) {
	if sub.Status == model.SubscriptionCancelled {
		return nil, fmt.Errorf("subscription is already cancelled: %w", ErrInvalidState)
	}

	now := time.Now().UTC()
	sub.Status = model.SubscriptionCancelled
	sub.AutoRenew = false
	sub.CancelledAt = &now
	sub.ExpiresAt = &now

	if err := s.db.Save(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// Renew extends the expiry by 30 days from the later of now and the current
// expiry, so renewing early stacks onto the remaining time.
func (s *SubscriptionService) Renew(sub *model.Subscription) (*model.Subscription, error) {
	if sub.Status != model.SubscriptionActive && sub.Status != model.SubscriptionExpired {
		return nil, fmt.Errorf("cannot renew a %s subscription: %w", sub.Status, ErrInvalidState)
	}

	now := time.Now().UTC()
	base := now
	if sub.ExpiresAt != nil && sub.ExpiresAt.After(now) {
		base = *sub.ExpiresAt
	}
	expiresAt := base.AddDate(0, 0, subscriptionPeriodDays)

	sub.Status = model.SubscriptionActive
	sub.ExpiresAt = &expiresAt

	if err := s.db.Save(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// ExpireOverdue flips active subscriptions whose expiry has passed to
// expired. Called by the daily sweep.
func (s *SubscriptionService) ExpireOverdue() (int64, error) {
	result := s.db.Model(&model.Subscription{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", model.SubscriptionActive, time.Now().UTC()).
		Update("status", model.SubscriptionExpired)
	return result.RowsAffected, result.Error
}
