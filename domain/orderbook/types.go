package orderbook

import "fmt"

// OrderID is assigned by the book's own persisted counter, starting at 0.
// IDs are strictly increasing and never reused.
type OrderID uint64

// Price is the limit price of an order. Zero is not a valid price.
type Price uint64

// Amount is a tradable quantity. It is non-negative by construction and
// arithmetic on it must fail instead of wrapping.
type Amount uint64

// AccountID is the opaque identity of an order's owner. Resolving and
// authenticating it is the hosting environment's job.
type AccountID string

type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	default:
		return "unknown"
	}
}

func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// ParseSide converts the wire representation of a side.
func ParseSide(v string) (Side, error) {
	switch v {
	case "bid", "buy":
		return Bid, nil
	case "ask", "sell":
		return Ask, nil
	default:
		return 0, fmt.Errorf("%w: side %q", ErrInvalidSide, v)
	}
}

// Add returns a+b, failing on overflow instead of wrapping.
func (a Amount) Add(b Amount) (Amount, error) {
	sum := a + b
	if sum < a {
		return 0, ErrAmountOverflow
	}
	return sum, nil
}

// Sub returns a-b, failing on underflow instead of wrapping.
func (a Amount) Sub(b Amount) (Amount, error) {
	if b > a {
		return 0, ErrAmountUnderflow
	}
	return a - b, nil
}

func minAmount(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// PriceKey encodes a price for ordered storage. Bid keys are the bitwise
// complement of the price so that ascending key order visits the highest
// bid first; ask keys are the price itself so that ascending key order
// visits the lowest ask first. Both sides then share one uniform
// "take the first key" best-price operation.
func PriceKey(s Side, p Price) uint64 {
	if s == Bid {
		return ^uint64(p)
	}
	return uint64(p)
}

// PriceFromKey decodes a key produced by PriceKey.
func PriceFromKey(s Side, k uint64) Price {
	if s == Bid {
		return Price(^k)
	}
	return Price(k)
}

// Entry is one resting order inside a price level. A cancelled entry that
// is not at the front of its level stays in place with Amount zero until
// the queue ahead of it drains.
type Entry struct {
	Amount  Amount    `json:"amount"`
	Account AccountID `json:"account"`
	OrderID OrderID   `json:"order_id"`
}

// OrderInfo is the registry record kept per order id: the immutable
// identity facts needed to locate and authorize the order.
type OrderInfo struct {
	Price   Price     `json:"price"`
	Side    Side      `json:"side"`
	Account AccountID `json:"account"`
}

// Trade records one fill. Price is always the resting (maker) order's
// price, never the incoming order's.
type Trade struct {
	MakerOrderID OrderID   `json:"maker_order_id"`
	TakerOrderID OrderID   `json:"taker_order_id"`
	MakerAccount AccountID `json:"maker_account"`
	TakerAccount AccountID `json:"taker_account"`
	Price        Price     `json:"price"`
	Quantity     Amount    `json:"quantity"`
}

// LevelEntry pairs a level entry with its price, used when loading
// persisted book state.
type LevelEntry struct {
	Price Price
	Entry Entry
}

// DepthLevel is one aggregated price level in a depth query.
type DepthLevel struct {
	Price  Price  `json:"price"`
	Amount Amount `json:"amount"`
	Orders int    `json:"orders"`
}
