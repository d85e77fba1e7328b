package engine

import "errors"

// The error taxonomy is closed: every kind is recoverable by the caller
// and no mutation is ever applied when one is returned.
var (
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidTickSize  = errors.New("invalid tick size")
	ErrInvalidOrderType = errors.New("invalid order type")
	ErrOrderNotFound    = errors.New("order not found")
)
