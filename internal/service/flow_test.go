package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socksflow_backend/internal/model"
)

// Walks the whole happy path at the service layer: register, log in,
// subscribe, get the subscription order, pay it through the mock gateway
// fallback, and confirm the paid state lands everywhere it should.
func TestSubscribeAndPayFlow(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	subSvc := NewSubscriptionService(db)
	orderSvc := NewOrderService(db)
	paymentSvc := NewPaymentService(db, nil, testConfig())
	addressSvc := NewAddressService(db)

	registered, err := userSvc.Register(RegisterInput{
		Email:    "flow@example.com",
		Password: "secret123",
		Name:     "Flow Tester",
	})
	require.NoError(t, err)

	user, err := userSvc.Authenticate("flow@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)

	addr, err := addressSvc.Create(user.ID, testAddressInput("Home"))
	require.NoError(t, err)
	require.True(t, addr.IsDefault)

	sub, err := subSvc.Create(user.ID, SubscriptionCreateInput{
		PlanCode:         "premium",
		StylePreferences: map[string]interface{}{"colors": []string{"black"}},
	})
	require.NoError(t, err)

	order, err := orderSvc.CreateFromSubscription(user.ID, sub, addr.Snapshot(), 1)
	require.NoError(t, err)
	assert.Equal(t, "79.90", order.TotalAmount.StringFixed(2))
	assert.Contains(t, string(order.ShippingAddress), addr.City)

	p, payURL, err := paymentSvc.CreateAlipayPayment(user.ID, order, "")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, p.Status)
	assert.True(t, strings.HasPrefix(p.TransactionID, "MOCK_"))
	assert.NotEmpty(t, payURL)

	order, err = orderSvc.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaid, order.Status)

	// Fulfilment continues from the paid order.
	order, err = orderSvc.MarkAsShipped(order, "SF987654")
	require.NoError(t, err)
	order, err = orderSvc.MarkAsDelivered(order)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDelivered, order.Status)

	payments, err := paymentSvc.GetByOrder(order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentSuccess, payments[0].Status)
}
