package controller

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"socksflow_backend/internal/model"
	"socksflow_backend/internal/service"
	"socksflow_backend/pkg/email"
	"socksflow_backend/pkg/utils/jwt"
)

var orderService *service.OrderService

func InitOrderController(os *service.OrderService) {
	orderService = os
}

type ShipOrderInput struct {
	TrackingNumber string `json:"tracking_number" validate:"required"`
}

func ListMyOrders(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := orderService.GetByUser(claims.UserID, (page-1)*limit, limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

func GetOrder(c *fiber.Ctx) error {
	order, err := ownedOrder(c)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"order":      order,
		"can_cancel": orderService.CanCancel(order),
	})
}

func CancelOrder(c *fiber.Ctx) error {
	order, err := ownedOrder(c)
	if err != nil {
		return errorResponse(c, err)
	}

	order, err = orderService.Cancel(order)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(order)
}

func ShipOrder(c *fiber.Ctx) error {
	order, err := ownedOrder(c)
	if err != nil {
		return errorResponse(c, err)
	}

	input := new(ShipOrderInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	order, err = orderService.MarkAsShipped(order, input.TrackingNumber)
	if err != nil {
		return errorResponse(c, err)
	}

	if email.GlobalEmailService != nil {
		claims := c.Locals("user").(*jwt.Claims)
		if err := email.GlobalEmailService.SendOrderShippedEmail(claims.Email, order.OrderNumber, order.TrackingNumber); err != nil {
			log.Printf("Could not send order shipped email: %v", err)
		}
	}

	return c.JSON(order)
}

func DeliverOrder(c *fiber.Ctx) error {
	order, err := ownedOrder(c)
	if err != nil {
		return errorResponse(c, err)
	}

	order, err = orderService.MarkAsDelivered(order)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(order)
}

func ownedOrder(c *fiber.Ctx) (*model.Order, error) {
	claims := c.Locals("user").(*jwt.Claims)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, service.ErrNotFound
	}

	order, err := orderService.GetByID(uint(id))
	if err != nil {
		return nil, err
	}
	if order.UserID != claims.UserID {
		return nil, service.ErrForbidden
	}
	return order, nil
}
