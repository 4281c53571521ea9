package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"socksflow_backend/internal/model"
	"socksflow_backend/pkg/payment"
)

// failingGateway rejects every payment creation, standing in for a
// provider outage or bad credentials discovered at request time.
type failingGateway struct{}

func (failingGateway) CreatePagePayment(payment.PagePayment) (string, error) {
	return "", errors.New("alipay: system busy")
}

func (failingGateway) VerifySignature(url.Values) error { return nil }

func (failingGateway) QueryTrade(context.Context, string) (*payment.QueryResult, error) {
	return nil, errors.New("alipay: system busy")
}

func (failingGateway) Refund(context.Context, payment.RefundRequest) (*payment.RefundResult, error) {
	return nil, errors.New("alipay: system busy")
}

func newTestCheckoutService(db *gorm.DB, payments *PaymentService) *CheckoutService {
	return NewCheckoutService(db, NewSubscriptionService(db), NewOrderService(db), payments)
}

func checkoutRowCounts(t *testing.T, db *gorm.DB, userID uint) (subs, orders, payments int64) {
	t.Helper()
	require.NoError(t, db.Model(&model.Subscription{}).Where("user_id = ?", userID).Count(&subs).Error)
	require.NoError(t, db.Model(&model.Order{}).Where("user_id = ?", userID).Count(&orders).Error)
	require.NoError(t, db.Model(&model.Payment{}).Where("user_id = ?", userID).Count(&payments).Error)
	return subs, orders, payments
}

func TestCheckoutMockPathCommitsEverything(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	svc := newTestCheckoutService(db, NewPaymentService(db, nil, testConfig()))

	result, err := svc.CreateSubscription(user.ID, CheckoutInput{
		Subscription: SubscriptionCreateInput{PlanCode: "standard"},
		Months:       1,
	})
	require.NoError(t, err)

	assert.Equal(t, model.SubscriptionActive, result.Subscription.Status)
	assert.Equal(t, model.OrderPaid, result.Order.Status)
	assert.Equal(t, model.PaymentSuccess, result.Payment.Status)
	assert.True(t, strings.HasPrefix(result.Payment.TransactionID, "MOCK_"))
	assert.Contains(t, result.PayURL, result.Payment.PaymentNo)

	subs, orders, payments := checkoutRowCounts(t, db, user.ID)
	assert.Equal(t, int64(1), subs)
	assert.Equal(t, int64(1), orders)
	assert.Equal(t, int64(1), payments)
}

func TestCheckoutRollsBackWhenMockDisallowed(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)

	cfg := testConfig()
	cfg.Payment.AllowMock = false
	svc := newTestCheckoutService(db, NewPaymentService(db, nil, cfg))

	_, err := svc.CreateSubscription(user.ID, CheckoutInput{
		Subscription: SubscriptionCreateInput{PlanCode: "standard"},
		Months:       1,
	})
	require.ErrorIs(t, err, ErrGateway)

	// Nothing from the failed request survives: no active subscription,
	// no pending order, no orphan payment row.
	subs, orders, payments := checkoutRowCounts(t, db, user.ID)
	assert.Zero(t, subs)
	assert.Zero(t, orders)
	assert.Zero(t, payments)

	// The user can immediately try again.
	_, err = NewSubscriptionService(db).GetActiveByUser(user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckoutRollsBackOnGatewayError(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	svc := newTestCheckoutService(db, NewPaymentService(db, failingGateway{}, testConfig()))

	_, err := svc.CreateSubscription(user.ID, CheckoutInput{
		Subscription: SubscriptionCreateInput{PlanCode: "premium"},
		Months:       3,
	})
	require.ErrorIs(t, err, ErrGateway)

	subs, orders, payments := checkoutRowCounts(t, db, user.ID)
	assert.Zero(t, subs)
	assert.Zero(t, orders)
	assert.Zero(t, payments)
}

func TestCheckoutRollsBackOnInvalidPlan(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	svc := newTestCheckoutService(db, NewPaymentService(db, nil, testConfig()))

	_, err := svc.CreateSubscription(user.ID, CheckoutInput{
		Subscription: SubscriptionCreateInput{PlanCode: "platinum"},
	})
	require.ErrorIs(t, err, ErrValidation)

	subs, orders, payments := checkoutRowCounts(t, db, user.ID)
	assert.Zero(t, subs)
	assert.Zero(t, orders)
	assert.Zero(t, payments)
}
