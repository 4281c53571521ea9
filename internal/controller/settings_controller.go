package controller

import (
	"github.com/gofiber/fiber/v2"

	"socksflow_backend/internal/service"
	"socksflow_backend/pkg/utils/jwt"
	"socksflow_backend/pkg/utils/storage"
)

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

func GetProfile(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	user, err := userService.GetByID(claims.UserID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(user.GetPublicProfile())
}

func UpdateProfile(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	user, err := userService.GetByID(claims.UserID)
	if err != nil {
		return errorResponse(c, err)
	}

	input := new(service.UpdateProfileInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	user, err = userService.UpdateProfile(user, *input)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(user.GetPublicProfile())
}

func ChangePassword(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	user, err := userService.GetByID(claims.UserID)
	if err != nil {
		return errorResponse(c, err)
	}

	input := new(ChangePasswordInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if len(input.NewPassword) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "new password must be at least 6 characters",
		})
	}

	if err := userService.ChangePassword(user, input.CurrentPassword, input.NewPassword); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Password changed",
	})
}

func UploadAvatar(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	user, err := userService.GetByID(claims.UserID)
	if err != nil {
		return errorResponse(c, err)
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "avatar file is required",
		})
	}

	avatarURL, err := storage.UploadAvatar(file, user.ID, user.Name)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	user, err = userService.UpdateProfile(user, service.UpdateProfileInput{AvatarURL: &avatarURL})
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"avatar_url": user.AvatarURL,
	})
}

// DeleteAccount soft-deletes: the user row stays because orders and
// payments reference it.
func DeleteAccount(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	user, err := userService.GetByID(claims.UserID)
	if err != nil {
		return errorResponse(c, err)
	}

	if err := userService.Deactivate(user); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Account deactivated",
	})
}
