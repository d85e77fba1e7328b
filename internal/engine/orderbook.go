// Package engine implements C6, the Orderbook: the matching engine for a
// single instrument. It is the hard part of the system — §2 of the spec
// puts 45% of the design weight here — because it ties the ordered price
// index (internal/book), the intrusive FIFO price levels (internal/level),
// the order registry (internal/registry) and the change log
// (internal/changelog) into one serially-executed state machine.
//
// An Orderbook is single-writer: every mutating call (Submit, Cancel,
// Modify) must be serialized by the embedder (internal/server does this by
// routing every request, for all instruments, through one session-handler
// goroutine). Reads
// (Snapshot, BestBidAsk, UpdatesSince) are safe to call from that same
// goroutine between mutations.
package engine

import (
	"github.com/rs/zerolog/log"

	"matchbook/internal/book"
	"matchbook/internal/changelog"
	"matchbook/internal/domain"
	"matchbook/internal/level"
	"matchbook/internal/registry"
)

// Orderbook is the matching engine for one instrument.
type Orderbook struct {
	instrument domain.Instrument
	bids       *book.Index
	asks       *book.Index
	orders     *registry.Registry
	log        *changelog.Log
}

// New creates an empty Orderbook for the given instrument.
func New(instrument domain.Instrument) *Orderbook {
	return &Orderbook{
		instrument: instrument,
		bids:       book.NewBids(),
		asks:       book.NewAsks(),
		orders:     registry.New(),
		log:        changelog.New(),
	}
}

// Instrument returns the instrument this book matches.
func (ob *Orderbook) Instrument() domain.Instrument { return ob.instrument }

// Submit validates and processes an incoming order. On success it returns
// the order's id (echoed back, even though it was caller-assigned) and the
// ordered list of fills it produced. No partial state change occurs if
// validation fails.
func (ob *Orderbook) Submit(o Order) (int64, []Fill, error) {
	if o.Quantity <= 0 {
		return 0, nil, ErrInvalidQuantity
	}
	switch o.Type {
	case domain.Limit:
		if !ob.instrument.IsValidPrice(o.Price) {
			return 0, nil, ErrInvalidTickSize
		}
	case domain.Market:
		// no price to validate
	default:
		return 0, nil, ErrInvalidOrderType
	}

	switch o.Type {
	case domain.Limit:
		return ob.submitLimit(o)
	default:
		return ob.submitMarket(o)
	}
}

func (ob *Orderbook) submitLimit(o Order) (int64, []Fill, error) {
	side, opp := ob.sides(o.Side)
	remaining := o.Quantity
	var fills []Fill

	for remaining > 0 {
		best := opp.Best()
		if best == nil || !crosses(o.Side, o.Price, best.Price) {
			break
		}
		filled, levelFills := ob.matchAtLevel(opp, best, remaining)
		remaining -= filled
		fills = append(fills, levelFills...)
	}

	if remaining > 0 {
		lvl := side.GetOrCreate(o.Price)
		resting := &level.RestingOrder{
			ID:       o.ID,
			Side:     o.Side,
			Price:    o.Price,
			Quantity: remaining,
			Owner:    o.Owner,
			Arrival:  o.Submitted,
		}
		lvl.PushTail(resting)
		ob.orders.Put(resting)
		ob.log.Append(changelog.Change{
			Action:   changelog.Add,
			Side:     o.Side,
			Price:    o.Price,
			HasPrice: true,
			Quantity: remaining,
			OrderID:  o.ID,
			HasOrder: true,
		})
	}

	log.Debug().
		Int64("orderID", o.ID).
		Str("side", o.Side.String()).
		Int("fills", len(fills)).
		Msg("limit order processed")

	return o.ID, fills, nil
}

func (ob *Orderbook) submitMarket(o Order) (int64, []Fill, error) {
	_, opp := ob.sides(o.Side)
	remaining := o.Quantity
	var fills []Fill

	for remaining > 0 {
		best := opp.Best()
		if best == nil {
			break
		}
		filled, levelFills := ob.matchAtLevel(opp, best, remaining)
		remaining -= filled
		fills = append(fills, levelFills...)
	}

	filledQty := o.Quantity - remaining
	ob.log.Append(changelog.Change{
		Action:   changelog.PartialFill,
		Side:     o.Side,
		Quantity: filledQty,
		OrderID:  o.ID,
		HasOrder: true,
	})

	log.Debug().
		Int64("orderID", o.ID).
		Str("side", o.Side.String()).
		Uint64("requested", uint64(o.Quantity)).
		Uint64("filled", uint64(filledQty)).
		Msg("market order processed")

	return o.ID, fills, nil
}

// sides returns (same-side index, opposing-side index) for s.
func (ob *Orderbook) sides(s domain.Side) (same, opp *book.Index) {
	if s == domain.Buy {
		return ob.bids, ob.asks
	}
	return ob.asks, ob.bids
}

// crosses reports whether an incoming order on side s with price p crosses
// an opposing best level at bestPrice. Limit orders only; market orders
// always cross by construction and never call this.
func crosses(s domain.Side, p, bestPrice domain.Price) bool {
	if s == domain.Buy {
		return p >= bestPrice
	}
	return p <= bestPrice
}

// matchAtLevel is the core routine of §4.2.4: walk lvl's FIFO from head,
// consuming up to requested quantity, emitting one fill per resting order
// touched and a fill/partial_fill change record per resting order
// consumed or reduced. It deletes lvl from idx if it empties.
func (ob *Orderbook) matchAtLevel(idx *book.Index, lvl *level.PriceLevel, requested domain.Quantity) (domain.Quantity, []Fill) {
	var fills []Fill
	var filled domain.Quantity

	for requested > 0 {
		head := lvl.Head()
		if head == nil {
			break
		}
		t := requested
		if head.Quantity < t {
			t = head.Quantity
		}

		lvl.Reduce(head, t)
		requested -= t
		filled += t
		fills = append(fills, Fill{RestingID: head.ID, Quantity: t, Price: lvl.Price})

		if head.Quantity == 0 {
			lvl.Detach(head)
			ob.orders.Delete(head.ID)
			ob.log.Append(changelog.Change{
				Action:   changelog.Fill,
				Side:     head.Side,
				Price:    lvl.Price,
				HasPrice: true,
				Quantity: t,
				OrderID:  head.ID,
				HasOrder: true,
			})
		} else {
			ob.log.Append(changelog.Change{
				Action:   changelog.PartialFill,
				Side:     head.Side,
				Price:    lvl.Price,
				HasPrice: true,
				Quantity: t,
				OrderID:  head.ID,
				HasOrder: true,
			})
			break
		}
	}

	if lvl.Empty() {
		idx.Delete(lvl.Price)
	}
	return filled, fills
}

// Cancel removes a resting order by id.
func (ob *Orderbook) Cancel(id int64) error {
	o, ok := ob.orders.Get(id)
	if !ok {
		return ErrOrderNotFound
	}
	lvl := o.Level()
	side, _ := ob.sides(o.Side)

	lvl.Detach(o)
	ob.orders.Delete(id)
	if lvl.Empty() {
		side.Delete(lvl.Price)
	}

	ob.log.Append(changelog.Change{
		Action:   changelog.Delete,
		Side:     o.Side,
		Price:    o.Price,
		HasPrice: true,
		OrderID:  id,
		HasOrder: true,
	})
	return nil
}

// Modify amends a resting order's quantity in place. Decreasing preserves
// time priority; increasing moves the order to the tail of its level,
// losing priority, and never attempts to match even if the new quantity
// would now cross — modify is a rest-side amend only.
func (ob *Orderbook) Modify(id int64, newQuantity domain.Quantity) (int64, error) {
	if newQuantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	o, ok := ob.orders.Get(id)
	if !ok {
		return 0, ErrOrderNotFound
	}

	lvl := o.Level()
	switch {
	case newQuantity < o.Quantity:
		lvl.Reduce(o, o.Quantity-newQuantity)
	case newQuantity > o.Quantity:
		delta := newQuantity - o.Quantity
		lvl.Detach(o)
		o.Quantity += delta
		lvl.PushTail(o)
		ob.orders.Put(o)
	}

	ob.log.Append(changelog.Change{
		Action:   changelog.Update,
		Side:     o.Side,
		Price:    o.Price,
		HasPrice: true,
		Quantity: newQuantity,
		OrderID:  id,
		HasOrder: true,
	})
	return id, nil
}

// LevelView is one row of a snapshot: a price and its aggregate resting
// volume.
type LevelView struct {
	Price  domain.Price
	Volume domain.Quantity
}

// Snapshot is a read-only depth view of both sides.
type Snapshot struct {
	Bids []LevelView
	Asks []LevelView
}

// Snapshot walks up to depth levels from each side's best price outward.
// It never mutates book state and never appends to the change log.
func (ob *Orderbook) Snapshot(depth int) Snapshot {
	var snap Snapshot
	ob.bids.Walk(depth, func(lvl *level.PriceLevel) {
		snap.Bids = append(snap.Bids, LevelView{Price: lvl.Price, Volume: lvl.TotalVolume})
	})
	ob.asks.Walk(depth, func(lvl *level.PriceLevel) {
		snap.Asks = append(snap.Asks, LevelView{Price: lvl.Price, Volume: lvl.TotalVolume})
	})
	return snap
}

// BestBidAsk peeks the top of book on both sides. A zero Price with ok=false
// signals an empty side.
func (ob *Orderbook) BestBidAsk() (bid domain.Price, bidOK bool, ask domain.Price, askOK bool) {
	if b := ob.bids.Best(); b != nil {
		bid, bidOK = b.Price, true
	}
	if a := ob.asks.Best(); a != nil {
		ask, askOK = a.Price, true
	}
	return
}

// UpdatesSince returns every change record with version > v, in order.
func (ob *Orderbook) UpdatesSince(v uint64) []changelog.Change { return ob.log.Since(v) }

// CurrentVersion returns the engine's current version.
func (ob *Orderbook) CurrentVersion() uint64 { return ob.log.Version() }

// ClearChanges discards buffered change records. Version is unaffected.
func (ob *Orderbook) ClearChanges() { ob.log.Clear() }
