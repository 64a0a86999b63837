package httpserver

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ledgerbook/domain/orderbook"
	"ledgerbook/service"
)

func jsonResponse(c *fiber.Ctx, status int, payload interface{}) error {
	return c.Status(status).JSON(payload)
}

func errorResponse(c *fiber.Ctx, status int, err error) error {
	return jsonResponse(c, status, fiber.Map{
		"error": err.Error(),
	})
}

// statusFor maps domain errors onto HTTP statuses. Anything not in the
// user-error taxonomy is a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, orderbook.ErrOrderNotPresent):
		return fiber.StatusNotFound
	case errors.Is(err, orderbook.ErrWrongOwnerOfOrder):
		return fiber.StatusForbidden
	case errors.Is(err, orderbook.ErrTooLargeModifyOrder):
		return fiber.StatusUnprocessableEntity
	case orderbook.IsUserError(err):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrHalted):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
