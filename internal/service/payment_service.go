package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"socksflow_backend/internal/model"
	"socksflow_backend/pkg/config"
	"socksflow_backend/pkg/payment"
)

// PaymentService drives the payment lifecycle: pending -> success or
// pending -> failed, both terminal. A refunded state is deliberately not
// modelled; Refund returns the gateway result as-is.
type PaymentService struct {
	db        *gorm.DB
	gateway   payment.Gateway
	allowMock bool
	sandbox   bool
	frontend  string

	// suffix generates the random digits of a payment number; a field so
	// tests can force collisions against the regeneration loop.
	suffix func(n int) string
}

// NewPaymentService takes the gateway chosen at startup; a nil gateway
// means unconfigured and, when allowed, routes payment creation through the
// mock-success path.
func NewPaymentService(db *gorm.DB, gateway payment.Gateway, cfg *config.Config) *PaymentService {
	return &PaymentService{
		db:        db,
		gateway:   gateway,
		allowMock: cfg.Payment.AllowMock,
		sandbox:   cfg.Alipay.Sandbox,
		frontend:  cfg.Frontend.URL,
		suffix:    randomDigits,
	}
}

// WithTx returns a copy of the service bound to the given transaction.
func (s *PaymentService) WithTx(tx *gorm.DB) *PaymentService {
	c := *s
	c.db = tx
	return &c
}

func (s *PaymentService) GetByID(id uint) (*model.Payment, error) {
	var p model.Payment
	if err := s.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (s *PaymentService) GetByPaymentNo(paymentNo string) (*model.Payment, error) {
	var p model.Payment
	if err := s.db.Where("payment_no = ?", paymentNo).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %s: %w", paymentNo, ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (s *PaymentService) GetByOrder(orderID uint) ([]model.Payment, error) {
	var payments []model.Payment
	err := s.db.Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// nextPaymentNo returns a PAY-prefixed number guaranteed unused at
// generation time, same retry contract as order numbers.
func (s *PaymentService) nextPaymentNo() (string, error) {
	for {
		candidate := fmt.Sprintf("PAY%s%s", time.Now().UTC().Format("20060102"), s.suffix(8))
		var count int64
		if err := s.db.Model(&model.Payment{}).Where("payment_no = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
}

func (s *PaymentService) Create(userID, orderID uint, amount decimal.Decimal, provider model.PaymentProvider) (*model.Payment, error) {
	paymentNo, err := s.nextPaymentNo()
	if err != nil {
		return nil, err
	}

	p := model.Payment{
		PaymentNo: paymentNo,
		UserID:    userID,
		OrderID:   orderID,
		Amount:    amount,
		Provider:  provider,
		Status:    model.PaymentPending,
	}

	if err := s.db.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateAlipayPayment creates a pending payment for the order and asks the
// gateway for a hosted payment page URL. Without provisioned credentials
// the payment is immediately marked success with a synthetic transaction id
// and the order cascades to paid; that path is for development only and is
// disabled by PAYMENT_ALLOW_MOCK=false.
func (s *PaymentService) CreateAlipayPayment(userID uint, order *model.Order, returnURL string) (*model.Payment, string, error) {
	p, err := s.Create(userID, order.ID, order.TotalAmount, model.ProviderAlipay)
	if err != nil {
		return nil, "", err
	}

	if s.gateway == nil {
		if !s.allowMock {
			return nil, "", fmt.Errorf("alipay credentials are not configured: %w", ErrGateway)
		}

		log.Printf("Alipay not configured, simulating success for payment %s", p.PaymentNo)
		if err := s.applySuccess(p, "MOCK_"+p.PaymentNo); err != nil {
			return nil, "", err
		}
		mockURL := fmt.Sprintf("%s/payment/success?out_trade_no=%s&mock=1", s.frontend, p.PaymentNo)
		return p, mockURL, nil
	}

	if returnURL == "" {
		returnURL = s.frontend + "/payment/success"
	}

	payURL, err := s.gateway.CreatePagePayment(payment.PagePayment{
		PaymentNo: p.PaymentNo,
		Amount:    p.Amount,
		Subject:   fmt.Sprintf("SocksFlow order #%s", order.OrderNumber),
		ReturnURL: returnURL,
		NotifyURL: s.frontend + "/api/payments/callback",
	})
	if err != nil {
		return nil, "", fmt.Errorf("could not create pay url: %v: %w", err, ErrGateway)
	}

	return p, payURL, nil
}

// ProcessCallback reconciles an asynchronous provider notification. The
// provider delivers at least once, so duplicates and reordering are normal;
// the success transition is a conditional update and applies exactly once.
func (s *PaymentService) ProcessCallback(values url.Values) (*model.Payment, error) {
	paymentNo := values.Get("out_trade_no")
	tradeStatus := payment.TradeStatus(values.Get("trade_status"))
	tradeNo := values.Get("trade_no")

	if paymentNo == "" || tradeStatus == "" {
		return nil, fmt.Errorf("callback is missing out_trade_no or trade_status: %w", ErrValidation)
	}

	p, err := s.GetByPaymentNo(paymentNo)
	if err != nil {
		return nil, err
	}

	// Audit trail first: the raw payload is kept whatever happens below.
	raw := make(map[string]string, len(values))
	for k := range values {
		raw[k] = values.Get(k)
	}
	rawJSON, _ := json.Marshal(raw)
	if err := s.db.Model(p).Update("provider_response", rawJSON).Error; err != nil {
		return nil, err
	}

	if s.gateway != nil {
		if err := s.gateway.VerifySignature(values); err != nil {
			if !s.sandbox {
				return nil, fmt.Errorf("callback signature verification failed: %w", ErrValidation)
			}
			log.Printf("Signature verification failed for payment %s, ignored in sandbox: %v", paymentNo, err)
		}
	} else {
		log.Printf("No gateway configured, skipping signature verification for payment %s", paymentNo)
	}

	switch {
	case tradeStatus.Paid():
		if err := s.applySuccess(p, tradeNo); err != nil {
			return nil, err
		}
	case tradeStatus == payment.StatusClosed:
		if err := s.applyFailed(p); err != nil {
			return nil, err
		}
	default:
		// Unrecognized provider states pass through without a transition.
		log.Printf("Payment %s: no transition for trade status %s", paymentNo, tradeStatus)
	}

	return s.GetByPaymentNo(paymentNo)
}

// applySuccess moves the payment to success and cascades the order to paid.
// Both writes are conditional updates so two racing callbacks cannot
// double-apply.
func (s *PaymentService) applySuccess(p *model.Payment, transactionID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		result := tx.Model(&model.Payment{}).
			Where("id = ? AND status = ?", p.ID, model.PaymentPending).
			Updates(map[string]interface{}{
				"status":         model.PaymentSuccess,
				"transaction_id": transactionID,
				"paid_at":        now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Already settled by an earlier notification.
			return nil
		}

		p.Status = model.PaymentSuccess
		p.TransactionID = transactionID
		p.PaidAt = &now

		return tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", p.OrderID, model.OrderPending).
			Updates(map[string]interface{}{
				"status":  model.OrderPaid,
				"paid_at": now,
			}).Error
	})
}

func (s *PaymentService) applyFailed(p *model.Payment) error {
	result := s.db.Model(&model.Payment{}).
		Where("id = ? AND status = ?", p.ID, model.PaymentPending).
		Update("status", model.PaymentFailed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		p.Status = model.PaymentFailed
	}
	return nil
}

// QueryStatus polls the gateway. Callback delivery is not guaranteed, so a
// poll that reports success applies the same transition the callback would.
func (s *PaymentService) QueryStatus(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("alipay credentials are not configured: %w", ErrGateway)
	}

	result, err := s.gateway.QueryTrade(ctx, p.PaymentNo)
	if err != nil {
		return nil, fmt.Errorf("status query failed: %v: %w", err, ErrGateway)
	}

	if result.Status.Paid() && p.Status != model.PaymentSuccess {
		if err := s.applySuccess(p, result.TradeNo); err != nil {
			return nil, err
		}
	}

	return s.GetByPaymentNo(p.PaymentNo)
}

// Refund is only valid for settled payments and defaults to the full
// amount. The gateway response is returned as-is; no local refunded status
// exists in this revision.
func (s *PaymentService) Refund(ctx context.Context, p *model.Payment, amount *decimal.Decimal, reason string) (*payment.RefundResult, error) {
	if p.Status != model.PaymentSuccess {
		return nil, fmt.Errorf("only successful payments can be refunded: %w", ErrInvalidState)
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("alipay credentials are not configured: %w", ErrGateway)
	}

	refundAmount := p.Amount
	if amount != nil {
		refundAmount = *amount
	}
	if reason == "" {
		reason = "customer requested refund"
	}

	result, err := s.gateway.Refund(ctx, payment.RefundRequest{
		PaymentNo: p.PaymentNo,
		TradeNo:   p.TransactionID,
		Amount:    refundAmount,
		Reason:    reason,
		RequestNo: p.PaymentNo + time.Now().UTC().Format("150405"),
	})
	if err != nil {
		return nil, fmt.Errorf("refund failed: %v: %w", err, ErrGateway)
	}

	return result, nil
}
