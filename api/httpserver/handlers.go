package httpserver

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"ledgerbook/domain/orderbook"
	"ledgerbook/service"
)

type Handler struct {
	svc *service.OrderService
	log *slog.Logger
}

func NewHandler(svc *service.OrderService, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type placeRequest struct {
	Side   string `json:"side"`
	Price  uint64 `json:"price"`
	Amount uint64 `json:"amount"`
}

type modifyRequest struct {
	NewAmount uint64 `json:"new_amount"`
}

type orderResponse struct {
	OrderID   orderbook.OrderID   `json:"order_id"`
	Account   orderbook.AccountID `json:"account"`
	Side      string              `json:"side"`
	Price     orderbook.Price     `json:"price"`
	Remaining orderbook.Amount    `json:"remaining"`
}

func (h *Handler) PlaceOrder(c *fiber.Ctx) error {
	var req placeRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, errors.New("invalid request body"))
	}

	side, err := orderbook.ParseSide(req.Side)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err)
	}

	account := accountFrom(c)
	receipt, err := h.svc.PlaceOrder(account, side, orderbook.Price(req.Price), orderbook.Amount(req.Amount))
	if err != nil {
		h.log.Warn("order.place rejected", "account", account, "err", err)
		return errorResponse(c, statusFor(err), err)
	}

	h.log.Info("order.place",
		"account", account,
		"order_id", receipt.OrderID,
		"side", side,
		"price", req.Price,
		"amount", req.Amount,
		"fills", len(receipt.Trades))
	return jsonResponse(c, fiber.StatusCreated, receipt)
}

func (h *Handler) CancelOrder(c *fiber.Ctx) error {
	id, err := parseOrderID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err)
	}

	account := accountFrom(c)
	if err := h.svc.CancelOrder(account, id); err != nil {
		h.log.Warn("order.cancel rejected", "account", account, "order_id", id, "err", err)
		return errorResponse(c, statusFor(err), err)
	}

	h.log.Info("order.cancel", "account", account, "order_id", id)
	return jsonResponse(c, fiber.StatusOK, fiber.Map{"order_id": id})
}

func (h *Handler) ModifyOrder(c *fiber.Ctx) error {
	id, err := parseOrderID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err)
	}

	var req modifyRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, errors.New("invalid request body"))
	}

	account := accountFrom(c)
	if err := h.svc.ModifyOrder(account, id, orderbook.Amount(req.NewAmount)); err != nil {
		h.log.Warn("order.modify rejected", "account", account, "order_id", id, "err", err)
		return errorResponse(c, statusFor(err), err)
	}

	h.log.Info("order.modify", "account", account, "order_id", id, "new_amount", req.NewAmount)
	return jsonResponse(c, fiber.StatusOK, fiber.Map{"order_id": id, "remaining": req.NewAmount})
}

func (h *Handler) GetOrder(c *fiber.Ctx) error {
	id, err := parseOrderID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err)
	}

	info, remaining, ok := h.svc.Order(id)
	if !ok {
		return errorResponse(c, fiber.StatusNotFound, orderbook.ErrOrderNotPresent)
	}
	return jsonResponse(c, fiber.StatusOK, orderResponse{
		OrderID:   id,
		Account:   info.Account,
		Side:      info.Side.String(),
		Price:     info.Price,
		Remaining: remaining,
	})
}

func (h *Handler) GetAccountOrders(c *fiber.Ctx) error {
	account := orderbook.AccountID(c.Params("account"))
	ids := h.svc.OrdersOf(account)

	orders := make([]orderResponse, 0, len(ids))
	for _, id := range ids {
		info, remaining, ok := h.svc.Order(id)
		if !ok {
			continue
		}
		orders = append(orders, orderResponse{
			OrderID:   id,
			Account:   info.Account,
			Side:      info.Side.String(),
			Price:     info.Price,
			Remaining: remaining,
		})
	}
	return jsonResponse(c, fiber.StatusOK, fiber.Map{"account": account, "orders": orders})
}

func (h *Handler) GetBook(c *fiber.Ctx) error {
	limit := c.QueryInt("depth", 10)
	if limit <= 0 {
		limit = 10
	}
	bids, asks, err := h.svc.Depth(limit)
	if err != nil {
		return errorResponse(c, statusFor(err), err)
	}

	resp := fiber.Map{"bids": bids, "asks": asks}
	if bid, ok := h.svc.BestBid(); ok {
		resp["best_bid"] = bid
	}
	if ask, ok := h.svc.BestAsk(); ok {
		resp["best_ask"] = ask
	}
	return jsonResponse(c, fiber.StatusOK, resp)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return jsonResponse(c, fiber.StatusOK, fiber.Map{
		"status":      "ok",
		"applied_seq": h.svc.AppliedSeq(),
		"open_orders": h.svc.OrderCount(),
	})
}

func parseOrderID(c *fiber.Ctx) (orderbook.OrderID, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, errors.New("order id must be an unsigned integer")
	}
	return orderbook.OrderID(id), nil
}
