package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"socksflow_backend/internal/service"
)

// errorResponse maps service-level failures onto the HTTP surface.
// Authorization failures stay distinct from not-found.
func errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidState):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrGateway):
		status = fiber.StatusBadGateway
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
