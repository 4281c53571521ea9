package controller

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"socksflow_backend/internal/model"
	"socksflow_backend/internal/service"
	"socksflow_backend/pkg/email"
	"socksflow_backend/pkg/plan"
	"socksflow_backend/pkg/utils/jwt"
)

var (
	subscriptionService *service.SubscriptionService
	checkoutService     *service.CheckoutService
)

func InitSubscriptionController(ss *service.SubscriptionService, cs *service.CheckoutService) {
	subscriptionService = ss
	checkoutService = cs
}

type SubscriptionCreateRequest struct {
	service.SubscriptionCreateInput
	ShippingAddress map[string]interface{} `json:"shipping_address" validate:"required"`
	Months          int                    `json:"months"`
}

func ListPlans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"plans": plan.List(),
	})
}

// GetPlanPrice quotes a plan for a number of months with the long-term
// discount applied.
func GetPlanPrice(c *fiber.Ctx) error {
	code := c.Params("code")
	months, err := strconv.Atoi(c.Query("months", "1"))
	if err != nil || months < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "months must be a positive integer",
		})
	}

	total, err := plan.CalculatePrice(code, months)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"plan_code": code,
		"months":    months,
		"total":     total,
	})
}

// CreateSubscription runs the whole chain in one transaction: subscription,
// derived order, gateway payment. The pay URL comes back to the caller; the
// order stays pending until the provider callback arrives (or is
// auto-completed on the mock path). A failure at any step persists nothing.
func CreateSubscription(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(SubscriptionCreateRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if len(input.ShippingAddress) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "shipping_address is required",
		})
	}

	result, err := checkoutService.CreateSubscription(claims.UserID, service.CheckoutInput{
		Subscription:    input.SubscriptionCreateInput,
		ShippingAddress: input.ShippingAddress,
		Months:          input.Months,
	})
	if err != nil {
		return errorResponse(c, err)
	}

	notifySubscriptionStarted(claims.UserID, result.Subscription, false)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"subscription": result.Subscription,
		"order":        result.Order,
		"payment_params": fiber.Map{
			"payment_id": result.Payment.ID,
			"payment_no": result.Payment.PaymentNo,
			"pay_url":    result.PayURL,
		},
	})
}

func GetMySubscriptions(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	subs, err := subscriptionService.GetByUser(claims.UserID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"subscriptions": subs,
	})
}

func GetSubscription(c *fiber.Ctx) error {
	sub, err := ownedSubscription(c)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(sub)
}

func UpdateSubscription(c *fiber.Ctx) error {
	sub, err := ownedSubscription(c)
	if err != nil {
		return errorResponse(c, err)
	}

	input := new(service.SubscriptionUpdateInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	sub, err = subscriptionService.Update(sub, *input)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(sub)
}

func PauseSubscription(c *fiber.Ctx) error {
	return transitionSubscription(c, subscriptionService.Pause)
}

func ResumeSubscription(c *fiber.Ctx) error {
	return transitionSubscription(c, subscriptionService.Resume)
}

func CancelSubscription(c *fiber.Ctx) error {
	sub, err := ownedSubscription(c)
	if err != nil {
		return errorResponse(c, err)
	}

	sub, err = subscriptionService.Cancel(sub)
	if err != nil {
		return errorResponse(c, err)
	}

	if email.GlobalEmailService != nil {
		if user, uerr := userService.GetByID(sub.UserID); uerr == nil {
			if serr := email.GlobalEmailService.SendSubscriptionCancelledEmail(user.Email, user.Name, sub.PlanName); serr != nil {
				log.Printf("Could not send subscription cancelled email: %v", serr)
			}
		}
	}

	return c.JSON(sub)
}

func RenewSubscription(c *fiber.Ctx) error {
	sub, err := ownedSubscription(c)
	if err != nil {
		return errorResponse(c, err)
	}

	sub, err = subscriptionService.Renew(sub)
	if err != nil {
		return errorResponse(c, err)
	}

	notifySubscriptionStarted(sub.UserID, sub, true)

	return c.JSON(sub)
}

func notifySubscriptionStarted(userID uint, sub *model.Subscription, isRenewal bool) {
	if email.GlobalEmailService == nil || sub.ExpiresAt == nil {
		return
	}
	user, err := userService.GetByID(userID)
	if err != nil {
		return
	}
	if err := email.GlobalEmailService.SendSubscriptionStartedEmail(
		user.Email, user.Name, sub.PlanName, sub.PriceMonthly, *sub.ExpiresAt, isRenewal,
	); err != nil {
		log.Printf("Could not send subscription email: %v", err)
	}
}

func transitionSubscription(c *fiber.Ctx, op func(*model.Subscription) (*model.Subscription, error)) error {
	sub, err := ownedSubscription(c)
	if err != nil {
		return errorResponse(c, err)
	}

	sub, err = op(sub)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(sub)
}

func ownedSubscription(c *fiber.Ctx) (*model.Subscription, error) {
	claims := c.Locals("user").(*jwt.Claims)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, service.ErrNotFound
	}

	sub, err := subscriptionService.GetByID(uint(id))
	if err != nil {
		return nil, err
	}
	if sub.UserID != claims.UserID {
		return nil, service.ErrForbidden
	}
	return sub, nil
}
