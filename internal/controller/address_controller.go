package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"socksflow_backend/internal/model"
	"socksflow_backend/internal/service"
	"socksflow_backend/pkg/utils/jwt"
)

var addressService *service.AddressService

func InitAddressController(as *service.AddressService) {
	addressService = as
}

func ListAddresses(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	addrs, err := addressService.GetByUser(claims.UserID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"addresses": addrs,
	})
}

func GetDefaultAddress(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	addr, err := addressService.GetDefaultOrFirst(claims.UserID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(addr)
}

func CreateAddress(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(service.AddressInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if input.Name == "" || input.Phone == "" || input.Province == "" || input.City == "" || input.District == "" || input.Address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name, phone, province, city, district and address are required",
		})
	}

	addr, err := addressService.Create(claims.UserID, *input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(addr)
}

func UpdateAddress(c *fiber.Ctx) error {
	addr, err := ownedAddress(c)
	if err != nil {
		return errorResponse(c, err)
	}

	input := new(service.AddressUpdateInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	addr, err = addressService.Update(addr, *input)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(addr)
}

func SetDefaultAddress(c *fiber.Ctx) error {
	addr, err := ownedAddress(c)
	if err != nil {
		return errorResponse(c, err)
	}

	addr, err = addressService.SetDefault(addr)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(addr)
}

func DeleteAddress(c *fiber.Ctx) error {
	addr, err := ownedAddress(c)
	if err != nil {
		return errorResponse(c, err)
	}

	if err := addressService.Delete(addr); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Address deleted",
	})
}

func ownedAddress(c *fiber.Ctx) (*model.Address, error) {
	claims := c.Locals("user").(*jwt.Claims)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, service.ErrNotFound
	}

	addr, err := addressService.GetByID(uint(id))
	if err != nil {
		return nil, err
	}
	if addr.UserID != claims.UserID {
		return nil, service.ErrForbidden
	}
	return addr, nil
}
