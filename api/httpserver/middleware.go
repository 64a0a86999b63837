package httpserver

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"ledgerbook/domain/orderbook"
)

const (
	RequestIDHeader = "X-Request-Id"
	AccountHeader   = "X-Account"
)

func requestIDMiddleware(c *fiber.Ctx) error {
	requestID := strings.TrimSpace(c.Get(RequestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Locals("request_id", requestID)
	c.Set(RequestIDHeader, requestID)
	return c.Next()
}

// requireAccount rejects mutating requests that carry no identity. The
// header stands in for whatever authn fronts this service.
func requireAccount(c *fiber.Ctx) error {
	account := strings.TrimSpace(c.Get(AccountHeader))
	if account == "" {
		return errorResponse(c, fiber.StatusUnauthorized, errors.New("missing "+AccountHeader+" header"))
	}
	c.Locals("account", orderbook.AccountID(account))
	return c.Next()
}

func accountFrom(c *fiber.Ctx) orderbook.AccountID {
	account, _ := c.Locals("account").(orderbook.AccountID)
	return account
}
