// Package ingest consumes order requests from a Kafka topic and feeds
// them through the order service. Offsets are committed only after the
// request is durably applied, so a crash replays the uncommitted tail
// instead of losing it.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"ledgerbook/domain/orderbook"
	"ledgerbook/service"
)

// Message is the wire form of one inbound request.
type Message struct {
	Kind      string `json:"kind"` // place | cancel | modify
	Account   string `json:"account"`
	Side      string `json:"side,omitempty"`
	Price     uint64 `json:"price,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`
	OrderID   uint64 `json:"order_id,omitempty"`
	NewAmount uint64 `json:"new_amount,omitempty"`
}

type Consumer struct {
	reader *kafka.Reader
	svc    *service.OrderService
	log    *slog.Logger
}

func New(brokers []string, topic, group string, svc *service.OrderService, log *slog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: group,
		}),
		svc: svc,
		log: log,
	}
}

// Run blocks until ctx is cancelled or the service halts.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := c.dispatch(msg.Value); err != nil {
			if errors.Is(err, service.ErrHalted) {
				// Leave the offset uncommitted; the restarted process
				// picks this request up again.
				return err
			}
			if orderbook.IsUserError(err) {
				c.log.Warn("request rejected", "offset", msg.Offset, "err", err)
			} else {
				return err
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Consumer) dispatch(value []byte) error {
	var m Message
	if err := json.Unmarshal(value, &m); err != nil {
		// Malformed input is dropped, not retried forever.
		c.log.Warn("dropping malformed request", "err", err)
		return nil
	}

	account := orderbook.AccountID(m.Account)
	switch m.Kind {
	case "place":
		side, err := orderbook.ParseSide(m.Side)
		if err != nil {
			return err
		}
		_, err = c.svc.PlaceOrder(account, side, orderbook.Price(m.Price), orderbook.Amount(m.Amount))
		return err
	case "cancel":
		return c.svc.CancelOrder(account, orderbook.OrderID(m.OrderID))
	case "modify":
		return c.svc.ModifyOrder(account, orderbook.OrderID(m.OrderID), orderbook.Amount(m.NewAmount))
	default:
		c.log.Warn("dropping request with unknown kind", "kind", m.Kind)
		return nil
	}
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("ingest: close reader: %w", err)
	}
	return nil
}
