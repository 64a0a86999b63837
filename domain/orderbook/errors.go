package orderbook

import "errors"

var (
	// ErrInvalidAmount rejects a placement with a zero amount.
	ErrInvalidAmount = errors.New("order amount must be positive")

	// ErrInvalidPrice rejects a placement with a zero price.
	ErrInvalidPrice = errors.New("order price must be positive")

	// ErrInvalidSide rejects an unparseable side.
	ErrInvalidSide = errors.New("invalid order side")

	// ErrOrderNotPresent means cancel/modify referenced an unknown order id.
	ErrOrderNotPresent = errors.New("order is not present")

	// ErrWrongOwnerOfOrder means cancel/modify was attempted by a caller
	// that does not own the order.
	ErrWrongOwnerOfOrder = errors.New("wrong owner of order")

	// ErrTooLargeModifyOrder means a modification requested an amount that
	// is not strictly smaller than the resting amount. Growing an order
	// requires cancel + re-place, which also resets its time priority.
	ErrTooLargeModifyOrder = errors.New("too large modify order")

	// ErrAmountOverflow and ErrAmountUnderflow are arithmetic faults.
	// They fail the request and never wrap committed state.
	ErrAmountOverflow  = errors.New("amount overflow")
	ErrAmountUnderflow = errors.New("amount underflow")

	// ErrOrderIDExhausted means the order id counter would wrap.
	ErrOrderIDExhausted = errors.New("order id counter exhausted")
)

// IsUserError reports whether err is a request-level rejection that leaves
// the book untouched, as opposed to an infrastructure fault.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidSide) ||
		errors.Is(err, ErrOrderNotPresent) ||
		errors.Is(err, ErrWrongOwnerOfOrder) ||
		errors.Is(err, ErrTooLargeModifyOrder)
}
