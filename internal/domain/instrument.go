// Package domain holds the types shared by every layer of the matching
// engine: prices, quantities, sides, order kinds, and the instrument
// descriptor that validates them.
package domain

import "fmt"

// Price is an exact fixed-point integer price; an instrument's TickSize is
// expressed in the same units, and a valid price is a positive multiple of
// it. Representing price this way — rather than as a float or an
// arbitrary-precision decimal — keeps every comparison and arithmetic
// operation on the matching hot path an exact int64 operation, per spec's
// "floating point is forbidden". The wire protocol (internal/wire) carries
// this integer as is; no decimal string form exists anywhere in the module.
type Price int64

// Quantity is a non-negative resting or requested size.
type Quantity uint64

// Side identifies which book a resting or incoming order belongs to.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// OrderType distinguishes market orders (never rest) from limit orders
// (rest on unfilled residual). No other kinds are supported — see
// spec's Non-goals.
type OrderType int

const (
	Limit OrderType = iota
	Market
)

func (t OrderType) String() string {
	if t == Limit {
		return "limit"
	}
	return "market"
}

// Instrument identifies a traded symbol and the minimum price increment
// resting orders on it must respect.
type Instrument struct {
	Symbol   string
	TickSize Price
}

// IsValidPrice reports whether p is a positive, exact multiple of the
// instrument's tick size. Validation is pure integer arithmetic — there is
// no representation ambiguity to guard against.
func (in Instrument) IsValidPrice(p Price) bool {
	return p > 0 && in.TickSize > 0 && p%in.TickSize == 0
}

func (in Instrument) String() string {
	return fmt.Sprintf("%s(tick=%d)", in.Symbol, in.TickSize)
}
