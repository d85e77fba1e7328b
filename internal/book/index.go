// Package book implements the ordered price index (C4): one per side,
// keyed by price, backed by github.com/tidwall/btree for O(log L)
// insert/delete and traversal, with a cached best-level pointer so the
// hot-path best_bid_ask peek is genuinely O(1) rather than the btree's
// O(log L) Min/Max.
package book

import (
	"github.com/tidwall/btree"

	"matchbook/internal/domain"
	"matchbook/internal/level"
)

// Index is one side (bids or asks) of the book. The comparator passed to
// New determines iteration order: bids compare greatest-first so the best
// bid is the tree's minimum, asks compare least-first so the best ask is
// the tree's minimum — this lets Best() and the match loop share one code
// path regardless of side.
type Index struct {
	tree *btree.BTreeG[*level.PriceLevel]
	best *level.PriceLevel
	less func(a, b domain.Price) bool
}

// NewBids returns an index ordered so the highest price sorts first.
func NewBids() *Index {
	return newIndex(func(a, b domain.Price) bool { return a > b })
}

// NewAsks returns an index ordered so the lowest price sorts first.
func NewAsks() *Index {
	return newIndex(func(a, b domain.Price) bool { return a < b })
}

func newIndex(less func(a, b domain.Price) bool) *Index {
	idx := &Index{less: less}
	idx.tree = btree.NewBTreeG(func(a, b *level.PriceLevel) bool {
		return less(a.Price, b.Price)
	})
	return idx
}

// Best returns the best (highest bid / lowest ask) level, or nil if the
// side is empty. O(1).
func (idx *Index) Best() *level.PriceLevel { return idx.best }

// Len reports the number of distinct price levels.
func (idx *Index) Len() int { return idx.tree.Len() }

// Get returns the level at price p, if one exists.
func (idx *Index) Get(p domain.Price) (*level.PriceLevel, bool) {
	return idx.tree.Get(&level.PriceLevel{Price: p})
}

// GetOrCreate returns the existing level at p, creating and inserting an
// empty one if absent.
func (idx *Index) GetOrCreate(p domain.Price) *level.PriceLevel {
	if lvl, ok := idx.tree.Get(&level.PriceLevel{Price: p}); ok {
		return lvl
	}
	lvl := level.NewPriceLevel(p)
	idx.tree.Set(lvl)
	idx.refreshBestOnInsert(lvl)
	return lvl
}

// Delete removes the level at price p. Called once a level's order count
// reaches zero.
func (idx *Index) Delete(p domain.Price) {
	removed, ok := idx.tree.Delete(&level.PriceLevel{Price: p})
	if !ok {
		return
	}
	if idx.best == removed {
		idx.recomputeBest()
	}
}

func (idx *Index) refreshBestOnInsert(lvl *level.PriceLevel) {
	if idx.best == nil || idx.less(lvl.Price, idx.best.Price) {
		idx.best = lvl
	}
}

func (idx *Index) recomputeBest() {
	lvl, ok := idx.tree.Min()
	if !ok {
		idx.best = nil
		return
	}
	idx.best = lvl
}

// Walk visits up to depth levels starting from the best, in the side's
// natural priority order (best first). It never mutates state and is used
// by Snapshot.
func (idx *Index) Walk(depth int, fn func(*level.PriceLevel)) {
	if depth <= 0 {
		return
	}
	n := 0
	idx.tree.Scan(func(lvl *level.PriceLevel) bool {
		fn(lvl)
		n++
		return n < depth
	})
}
