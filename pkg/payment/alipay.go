package payment

import (
	"context"
	"fmt"
	"net/url"

	"github.com/smartwalle/alipay/v3"

	"socksflow_backend/pkg/config"
)

type alipayGateway struct {
	client *alipay.Client
}

func newAlipayGateway(cfg config.AlipayConfig) (*alipayGateway, error) {
	client, err := alipay.New(cfg.AppID, cfg.PrivateKey, !cfg.Sandbox)
	if err != nil {
		return nil, fmt.Errorf("could not create alipay client: %w", err)
	}

	if cfg.PublicKey != "" {
		if err := client.LoadAliPayPublicKey(cfg.PublicKey); err != nil {
			return nil, fmt.Errorf("could not load alipay public key: %w", err)
		}
	}

	return &alipayGateway{client: client}, nil
}

func (g *alipayGateway) CreatePagePayment(p PagePayment) (string, error) {
	var param = alipay.TradePagePay{}
	param.OutTradeNo = p.PaymentNo
	param.TotalAmount = p.Amount.StringFixed(2)
	param.Subject = p.Subject
	param.ReturnURL = p.ReturnURL
	param.NotifyURL = p.NotifyURL
	param.ProductCode = "FAST_INSTANT_TRADE_PAY"

	payURL, err := g.client.TradePagePay(param)
	if err != nil {
		return "", fmt.Errorf("could not build pay url: %w", err)
	}
	return payURL.String(), nil
}

func (g *alipayGateway) VerifySignature(values url.Values) error {
	return g.client.VerifySign(values)
}

func (g *alipayGateway) QueryTrade(ctx context.Context, paymentNo string) (*QueryResult, error) {
	rsp, err := g.client.TradeQuery(ctx, alipay.TradeQuery{OutTradeNo: paymentNo})
	if err != nil {
		return nil, fmt.Errorf("trade query failed: %w", err)
	}
	if rsp.IsFailure() {
		return nil, fmt.Errorf("trade query rejected: %s - %s", rsp.Code, rsp.Msg)
	}

	return &QueryResult{
		Status:  TradeStatus(rsp.TradeStatus),
		TradeNo: rsp.TradeNo,
	}, nil
}

func (g *alipayGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	rsp, err := g.client.TradeRefund(ctx, alipay.TradeRefund{
		OutTradeNo:   req.PaymentNo,
		TradeNo:      req.TradeNo,
		RefundAmount: req.Amount.StringFixed(2),
		RefundReason: req.Reason,
		OutRequestNo: req.RequestNo,
	})
	if err != nil {
		return nil, fmt.Errorf("refund failed: %w", err)
	}
	if rsp.IsFailure() {
		return nil, fmt.Errorf("refund rejected: %s - %s", rsp.Code, rsp.Msg)
	}

	return &RefundResult{
		RefundFee:  rsp.RefundFee,
		FundChange: rsp.FundChange,
	}, nil
}
