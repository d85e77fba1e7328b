// Package level implements the resting-order record and price level that
// together form C2/C3 of the matching engine: an intrusive FIFO queue of
// orders resting at a single (side, price), with O(1) amend-in-place and
// O(1) detach by id.
package level

import (
	"time"

	"matchbook/internal/domain"
)

// RestingOrder is a limit order that did not fully match on entry. It is
// owned by exactly one PriceLevel and carries its own FIFO neighbours so
// that detaching it (full fill or cancel) never requires a scan.
type RestingOrder struct {
	ID        int64
	Side      domain.Side
	Price     domain.Price
	Quantity  domain.Quantity
	Owner     string
	Arrival   time.Time
	prev      *RestingOrder
	next      *RestingOrder
	ownerLvl  *PriceLevel
}

// Level returns the price level this order currently rests on.
func (o *RestingOrder) Level() *PriceLevel { return o.ownerLvl }

// PriceLevel aggregates every resting order at a single price. It owns its
// FIFO list: removing the last order from a level is the caller's signal to
// delete the level from the owning side index.
type PriceLevel struct {
	Price       domain.Price
	TotalVolume domain.Quantity
	OrderCount  int
	head        *RestingOrder
	tail        *RestingOrder
}

// NewPriceLevel creates an empty level at price p.
func NewPriceLevel(p domain.Price) *PriceLevel {
	return &PriceLevel{Price: p}
}

// Head returns the earliest-arrived resting order, or nil if empty.
func (l *PriceLevel) Head() *RestingOrder { return l.head }

// Empty reports whether the level has no resting orders left.
func (l *PriceLevel) Empty() bool { return l.OrderCount == 0 }

// PushTail appends a new resting order to the back of the FIFO — used both
// for a fresh residual rest and for a modify-increase, which loses priority
// and re-enters at the tail.
func (l *PriceLevel) PushTail(o *RestingOrder) {
	o.ownerLvl = l
	o.prev = l.tail
	o.next = nil
	if l.tail != nil {
		l.tail.next = o
	} else {
		l.head = o
	}
	l.tail = o
	l.OrderCount++
	l.TotalVolume += o.Quantity
}

// Detach removes o from the FIFO in O(1), wherever it sits in the list.
// Used by cancel and by full-fill consumption in the match loop.
func (l *PriceLevel) Detach(o *RestingOrder) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}
	l.OrderCount--
	l.TotalVolume -= o.Quantity
	o.prev, o.next, o.ownerLvl = nil, nil, nil
}

// Reduce decrements a resting order's residual quantity in place, keeping
// the level's aggregate volume consistent. Used both by the match loop
// (partial consumption of the head) and by modify-decrease (priority kept).
func (l *PriceLevel) Reduce(o *RestingOrder, by domain.Quantity) {
	o.Quantity -= by
	l.TotalVolume -= by
}

// Grow increments a resting order's quantity in place without touching its
// FIFO position. Only safe when the caller has already decided priority is
// to be preserved — a quantity increase that should lose priority goes
// through Detach + PushTail instead (see Orderbook.Modify).
func (l *PriceLevel) Grow(o *RestingOrder, by domain.Quantity) {
	o.Quantity += by
	l.TotalVolume += by
}

// Orders returns the resting orders in arrival order. It is O(n) and meant
// for tests/snapshots, never the match loop.
func (l *PriceLevel) Orders() []*RestingOrder {
	out := make([]*RestingOrder, 0, l.OrderCount)
	for o := l.head; o != nil; o = o.next {
		out = append(out, o)
	}
	return out
}
