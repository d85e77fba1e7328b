package engine

import (
	"time"

	"matchbook/internal/domain"
)

// Order is an incoming submission. Price is ignored for Market orders.
// ID is caller-assigned and never reused by the engine — uniqueness is the
// caller's responsibility, per spec.
type Order struct {
	ID        int64
	Side      domain.Side
	Type      domain.OrderType
	Price     domain.Price
	Quantity  domain.Quantity
	Owner     string
	Submitted time.Time
}

// Fill is one trade produced by a submit call: a resting order partially
// or fully consumed at a given price.
type Fill struct {
	RestingID int64
	Quantity  domain.Quantity
	Price     domain.Price
}
