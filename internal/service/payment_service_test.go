package service

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"socksflow_backend/internal/model"
)

// PAY + yyyymmdd + 8 random digits.
var paymentNoPattern = regexp.MustCompile(`^PAY\d{16}$`)

func newTestPaymentService(db *gorm.DB) *PaymentService {
	return NewPaymentService(db, nil, testConfig())
}

func setupPendingPayment(t *testing.T, db *gorm.DB, svc *PaymentService) (*model.Order, *model.Payment) {
	t.Helper()

	user := createTestUser(t, db)
	order, err := NewOrderService(db).Create(user.ID, OrderCreateInput{
		TotalAmount: decimal.RequireFromString("49.90"),
	})
	require.NoError(t, err)

	p, err := svc.Create(user.ID, order.ID, order.TotalAmount, model.ProviderAlipay)
	require.NoError(t, err)
	assert.Regexp(t, paymentNoPattern, p.PaymentNo)
	assert.Equal(t, model.PaymentPending, p.Status)

	return order, p
}

func successCallback(paymentNo, tradeNo string) url.Values {
	return url.Values{
		"out_trade_no": {paymentNo},
		"trade_status": {"TRADE_SUCCESS"},
		"trade_no":     {tradeNo},
		"total_amount": {"49.90"},
	}
}

func TestCallbackSuccess(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(db)
	order, p := setupPendingPayment(t, db, svc)

	got, err := svc.ProcessCallback(successCallback(p.PaymentNo, "2024ALIPAYTX001"))
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, got.Status)
	assert.Equal(t, "2024ALIPAYTX001", got.TransactionID)
	require.NotNil(t, got.PaidAt)

	// Raw payload is persisted for audit.
	assert.Contains(t, string(got.ProviderResponse), "TRADE_SUCCESS")

	// The order cascaded to paid.
	gotOrder, err := NewOrderService(db).GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaid, gotOrder.Status)
	assert.NotNil(t, gotOrder.PaidAt)
}

func TestCallbackDuplicateSuccessIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(db)
	order, p := setupPendingPayment(t, db, svc)

	first, err := svc.ProcessCallback(successCallback(p.PaymentNo, "TX_FIRST"))
	require.NoError(t, err)
	require.NotNil(t, first.PaidAt)

	// The provider redelivers with a different trade number; the first
	// settlement must stand untouched.
	second, err := svc.ProcessCallback(successCallback(p.PaymentNo, "TX_SECOND"))
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, second.Status)
	assert.Equal(t, "TX_FIRST", second.TransactionID)
	assert.True(t, first.PaidAt.Equal(*second.PaidAt))

	gotOrder, err := NewOrderService(db).GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaid, gotOrder.Status)
}

func TestCallbackTradeFinished(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(db)
	_, p := setupPendingPayment(t, db, svc)

	values := successCallback(p.PaymentNo, "TX001")
	values.Set("trade_status", "TRADE_FINISHED")

	got, err := svc.ProcessCallback(values)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, got.Status)
}

func TestCallbackTradeClosed(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(db)
	order, p := setupPendingPayment(t, db, svc)

	values := url.Values{
		"out_trade_no": {p.PaymentNo},
		"trade_status": {"TRADE_CLOSED"},
	}
	got, err := svc.ProcessCallback(values)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, got.Status)

	// A closed trade does not touch the order.
	gotOrder, err := NewOrderService(db).GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, gotOrder.Status)
}

func TestCallbackClosedAfterSuccessIgnored(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(db)
	_, p := setupPendingPayment(t, db, svc)

	_, err := svc.ProcessCallback(successCallback(p.PaymentNo, "TX001"))
	require.NoError(t, err)

	values := url.Values{
		"out_trade_no": {p.PaymentNo},
		"trade_status": {"TRADE_CLOSED"},
	}
	got, err := svc.ProcessCallback(values)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, got.Status)
	assert.Equal(t, "TX001", got.TransactionID)
}

func TestCallbackWaitBuyerPayNoTransition(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(db)
	_, p := setupPendingPayment(t, db, svc)

	values := url.Values{
		"out_trade_no": {p.PaymentNo},
		"trade_status": {"WAIT_BUYER_PAY"},
	}
	got, err := svc.ProcessCallback(values)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, got.Status)
}

func TestCallbackMalformed(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(db)

	_, err := svc.ProcessCallback(url.Values{"trade_status": {"TRADE_SUCCESS"}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ProcessCallback(url.Values{"out_trade_no": {"PAY202402150000001"}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCallbackUnknownPayment(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(db)

	_, err := svc.ProcessCallback(successCallback("PAY2024021599999999", "TX001"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAlipayPaymentMockFallback(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(db)
	user := createTestUser(t, db)
	orderSvc := NewOrderService(db)

	order, err := orderSvc.Create(user.ID, OrderCreateInput{
		TotalAmount: decimal.RequireFromString("49.90"),
	})
	require.NoError(t, err)

	p, payURL, err := svc.CreateAlipayPayment(user.ID, order, "")
	require.NoError(t, err)

	// Without credentials the payment settles immediately.
	assert.Equal(t, model.PaymentSuccess, p.Status)
	assert.True(t, strings.HasPrefix(p.TransactionID, "MOCK_"))
	assert.Contains(t, payURL, p.PaymentNo)
	assert.Contains(t, payURL, "mock=1")

	gotOrder, err := orderSvc.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaid, gotOrder.Status)
}

func TestCreateAlipayPaymentMockDisallowed(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	cfg.Payment.AllowMock = false
	svc := NewPaymentService(db, nil, cfg)

	user := createTestUser(t, db)
	order, err := NewOrderService(db).Create(user.ID, OrderCreateInput{
		TotalAmount: decimal.RequireFromString("49.90"),
	})
	require.NoError(t, err)

	_, _, err = svc.CreateAlipayPayment(user.ID, order, "")
	assert.ErrorIs(t, err, ErrGateway)
}

func TestRefundRequiresSuccess(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(db)
	_, p := setupPendingPayment(t, db, svc)

	_, err := svc.Refund(context.Background(), p, nil, "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestQueryStatusWithoutGateway(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(db)
	_, p := setupPendingPayment(t, db, svc)

	_, err := svc.QueryStatus(context.Background(), p)
	assert.ErrorIs(t, err, ErrGateway)
}

func TestPaymentNoCollisionRegenerates(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(db)
	order, first := setupPendingPayment(t, db, svc)

	firstSuffix := first.PaymentNo[len(first.PaymentNo)-8:]
	seq := []string{firstSuffix, "00000042"}
	svc.suffix = func(n int) string {
		s := seq[0]
		seq = seq[1:]
		return s
	}

	second, err := svc.Create(first.UserID, order.ID, order.TotalAmount, model.ProviderAlipay)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(second.PaymentNo, "00000042"))
	assert.NotEqual(t, first.PaymentNo, second.PaymentNo)
	assert.Empty(t, seq, "expected the collision to consume a regeneration")
}

func TestPaymentsByOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(db)
	order, p := setupPendingPayment(t, db, svc)

	second, err := svc.Create(p.UserID, order.ID, order.TotalAmount, model.ProviderAlipay)
	require.NoError(t, err)
	assert.NotEqual(t, p.PaymentNo, second.PaymentNo)

	payments, err := svc.GetByOrder(order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}
