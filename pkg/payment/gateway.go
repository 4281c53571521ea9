package payment

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"

	"socksflow_backend/pkg/config"
)

// TradeStatus mirrors the provider's trade-state enumeration. Values the
// provider may add later fall through every check unrecognized.
type TradeStatus string

const (
	StatusWaitBuyerPay TradeStatus = "WAIT_BUYER_PAY"
	StatusSuccess      TradeStatus = "TRADE_SUCCESS"
	StatusFinished     TradeStatus = "TRADE_FINISHED"
	StatusClosed       TradeStatus = "TRADE_CLOSED"
)

// Paid reports whether the status counts as a completed payment.
func (s TradeStatus) Paid() bool {
	return s == StatusSuccess || s == StatusFinished
}

type PagePayment struct {
	PaymentNo string
	Amount    decimal.Decimal
	Subject   string
	ReturnURL string
	NotifyURL string
}

type QueryResult struct {
	Status  TradeStatus
	TradeNo string
}

type RefundRequest struct {
	PaymentNo string
	TradeNo   string
	Amount    decimal.Decimal
	Reason    string
	RequestNo string
}

type RefundResult struct {
	RefundFee  string `json:"refund_fee"`
	FundChange string `json:"fund_change"`
}

// Gateway is the narrow capability surface this backend consumes from the
// payment provider.
type Gateway interface {
	CreatePagePayment(p PagePayment) (string, error)
	VerifySignature(values url.Values) error
	QueryTrade(ctx context.Context, paymentNo string) (*QueryResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

// NewGateway selects the gateway strategy once at construction time. A nil
// gateway means no credentials are provisioned; the payment service then
// takes the mock-success path if the configuration allows it.
func NewGateway(cfg config.AlipayConfig) (Gateway, error) {
	if !cfg.Configured() {
		return nil, nil
	}
	return newAlipayGateway(cfg)
}
