package controller

import (
	"encoding/json"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"socksflow_backend/internal/model"
	"socksflow_backend/internal/service"
	"socksflow_backend/pkg/utils/jwt"
)

var (
	paymentService      *service.PaymentService
	paymentOrderService *service.OrderService
)

func InitPaymentController(ps *service.PaymentService, os *service.OrderService) {
	paymentService = ps
	paymentOrderService = os
}

type AlipayPaymentInput struct {
	ReturnURL string `json:"return_url"`
}

type RefundInput struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason"`
}

// CreateAlipayPayment creates a payment for a pending order and returns
// the hosted payment page URL (or the mock URL when no gateway is
// configured).
func CreateAlipayPayment(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	orderID, err := strconv.Atoi(c.Params("order_id"))
	if err != nil {
		return errorResponse(c, service.ErrNotFound)
	}

	order, err := paymentOrderService.GetByID(uint(orderID))
	if err != nil {
		return errorResponse(c, err)
	}
	if order.UserID != claims.UserID {
		return errorResponse(c, service.ErrForbidden)
	}
	if order.Status != model.OrderPending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "order is already paid or cancelled",
		})
	}

	input := new(AlipayPaymentInput)
	c.BodyParser(input) // body is optional

	payment, payURL, err := paymentService.CreateAlipayPayment(claims.UserID, order, input.ReturnURL)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"payment_id": payment.ID,
		"payment_no": payment.PaymentNo,
		"pay_url":    payURL,
	})
}

// HandlePaymentCallback receives the provider's asynchronous notification.
// The provider may deliver it as form data or JSON; both are tolerated and
// reduced to key/value pairs before processing. Alipay expects the literal
// body "success" as the acknowledgement.
func HandlePaymentCallback(c *fiber.Ctx) error {
	values := callbackValues(c)
	if len(values) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "empty callback payload",
		})
	}

	if _, err := paymentService.ProcessCallback(values); err != nil {
		log.Printf("Payment callback rejected: %v", err)
		return errorResponse(c, err)
	}

	return c.SendString("success")
}

func callbackValues(c *fiber.Ctx) url.Values {
	contentType := string(c.Request().Header.ContentType())

	if strings.Contains(contentType, "application/json") {
		var payload map[string]interface{}
		if err := json.Unmarshal(c.Body(), &payload); err != nil {
			return nil
		}
		values := make(url.Values, len(payload))
		for k, v := range payload {
			switch s := v.(type) {
			case string:
				values.Set(k, s)
			default:
				raw, _ := json.Marshal(v)
				values.Set(k, string(raw))
			}
		}
		return values
	}

	values := make(url.Values)
	args := c.Request().PostArgs()
	args.VisitAll(func(key, value []byte) {
		values.Set(string(key), string(value))
	})
	if len(values) == 0 {
		c.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
			values.Set(string(key), string(value))
		})
	}
	return values
}

// GetPaymentStatus polls the gateway and applies a success transition the
// callback may have missed.
func GetPaymentStatus(c *fiber.Ctx) error {
	payment, err := ownedPayment(c)
	if err != nil {
		return errorResponse(c, err)
	}

	payment, err = paymentService.QueryStatus(c.Context(), payment)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"payment_no":     payment.PaymentNo,
		"status":         payment.Status,
		"transaction_id": payment.TransactionID,
		"paid_at":        payment.PaidAt,
	})
}

func RefundPayment(c *fiber.Ctx) error {
	payment, err := ownedPayment(c)
	if err != nil {
		return errorResponse(c, err)
	}

	input := new(RefundInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	result, err := paymentService.Refund(c.Context(), payment, input.Amount, input.Reason)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Refund submitted",
		"result":  result,
	})
}

// ListOrderPayments returns the payment attempts recorded for one order.
func ListOrderPayments(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	orderID, err := strconv.Atoi(c.Params("order_id"))
	if err != nil {
		return errorResponse(c, service.ErrNotFound)
	}

	order, err := paymentOrderService.GetByID(uint(orderID))
	if err != nil {
		return errorResponse(c, err)
	}
	if order.UserID != claims.UserID {
		return errorResponse(c, service.ErrForbidden)
	}

	payments, err := paymentService.GetByOrder(order.ID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"payments": payments,
	})
}

func ownedPayment(c *fiber.Ctx) (*model.Payment, error) {
	claims := c.Locals("user").(*jwt.Claims)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, service.ErrNotFound
	}

	payment, err := paymentService.GetByID(uint(id))
	if err != nil {
		return nil, err
	}
	if payment.UserID != claims.UserID {
		return nil, service.ErrForbidden
	}
	return payment, nil
}
