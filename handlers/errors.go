package handlers

import (
	"errors"

	"aura-growth/models"
	"aura-growth/services"

	"github.com/gofiber/fiber/v2"
)

// fail maps service errors onto HTTP status codes.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrAlreadyRegistered):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidSetting),
		errors.Is(err, models.ErrNegativeXP),
		errors.Is(err, models.ErrRewardTooLarge):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, msg string, err error) error {
	body := fiber.Map{"error": msg}
	if err != nil {
		body["cause"] = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}
