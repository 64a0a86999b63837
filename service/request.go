package service

import (
	"encoding/json"
	"fmt"

	"ledgerbook/domain/orderbook"
	"ledgerbook/infra/wal"
)

// Request is the journaled form of one book mutation. The record type
// says which fields matter; everything needed to replay the request
// deterministically is in here, nothing else is.
type Request struct {
	Account   orderbook.AccountID `json:"account"`
	Side      orderbook.Side      `json:"side,omitempty"`
	Price     orderbook.Price     `json:"price,omitempty"`
	Amount    orderbook.Amount    `json:"amount,omitempty"`
	OrderID   orderbook.OrderID   `json:"order_id,omitempty"`
	NewAmount orderbook.Amount    `json:"new_amount,omitempty"`
}

func encodeRequest(r Request) ([]byte, error) {
	return json.Marshal(r)
}

func decodeRequest(rec *wal.Record) (Request, error) {
	var r Request
	if err := json.Unmarshal(rec.Data, &r); err != nil {
		return Request{}, fmt.Errorf("service: corrupt request at seq %d: %w", rec.Seq, err)
	}
	return r, nil
}

// Receipt is what a successful placement returns: the assigned id and
// the fills it produced, in execution order.
type Receipt struct {
	OrderID orderbook.OrderID `json:"order_id"`
	Trades  []orderbook.Trade `json:"trades,omitempty"`
}
