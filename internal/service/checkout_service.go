package service

import (
	"gorm.io/gorm"

	"socksflow_backend/internal/model"
)

// CheckoutService runs the subscribe-and-pay chain as one unit of work:
// subscription, derived order, and gateway payment either all commit or
// none of them do. A gateway failure midway must not leave an active
// subscription or an orphan pending order behind.
type CheckoutService struct {
	db            *gorm.DB
	subscriptions *SubscriptionService
	orders        *OrderService
	payments      *PaymentService
}

func NewCheckoutService(db *gorm.DB, subs *SubscriptionService, orders *OrderService, payments *PaymentService) *CheckoutService {
	return &CheckoutService{
		db:            db,
		subscriptions: subs,
		orders:        orders,
		payments:      payments,
	}
}

type CheckoutInput struct {
	Subscription    SubscriptionCreateInput
	ShippingAddress interface{}
	Months          int
	ReturnURL       string
}

type CheckoutResult struct {
	Subscription *model.Subscription
	Order        *model.Order
	Payment      *model.Payment
	PayURL       string
}

// CreateSubscription opens one transaction around the whole chain. The
// inner service transactions become savepoints, so an error from any step
// rolls everything back.
func (s *CheckoutService) CreateSubscription(userID uint, input CheckoutInput) (*CheckoutResult, error) {
	var result CheckoutResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := s.subscriptions.WithTx(tx).Create(userID, input.Subscription)
		if err != nil {
			return err
		}

		orders := s.orders.WithTx(tx)
		order, err := orders.CreateFromSubscription(userID, sub, input.ShippingAddress, input.Months)
		if err != nil {
			return err
		}

		p, payURL, err := s.payments.WithTx(tx).CreateAlipayPayment(userID, order, input.ReturnURL)
		if err != nil {
			return err
		}

		// The mock path marks the order paid; re-read inside the
		// transaction so the response reflects it.
		order, err = orders.GetByID(order.ID)
		if err != nil {
			return err
		}

		result = CheckoutResult{
			Subscription: sub,
			Order:        order,
			Payment:      p,
			PayURL:       payURL,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}
