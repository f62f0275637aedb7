package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"practimatch/job-match-api/internal/apperrors"
)

// errorResponse maps service errors onto HTTP statuses: validation errors
// become 400, missing resources 404, everything else 500.
func errorResponse(c *fiber.Ctx, err error) error {
	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Error(),
		})
	}

	if errors.Is(err, apperrors.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
