package httpserver

import (
	"github.com/gofiber/fiber/v2"
)

// New mounts the order API onto router. Mutating routes require the
// account header; reads are open.
func New(router fiber.Router, handler *Handler) {
	router.Use(requestIDMiddleware)

	orders := router.Group("/orders")
	orders.Post("/", requireAccount, handler.PlaceOrder)
	orders.Delete("/:id", requireAccount, handler.CancelOrder)
	orders.Patch("/:id", requireAccount, handler.ModifyOrder)
	orders.Get("/:id", handler.GetOrder)

	accounts := router.Group("/accounts")
	accounts.Get("/:account/orders", handler.GetAccountOrders)

	router.Get("/book", handler.GetBook)
	router.Get("/healthz", handler.Health)
}
