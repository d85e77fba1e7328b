package level

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"matchbook/internal/domain"
)

func TestPriceLevel_PushTailAndDetach(t *testing.T) {
	lvl := NewPriceLevel(100)
	a := &RestingOrder{ID: 1, Quantity: 5}
	b := &RestingOrder{ID: 2, Quantity: 7}
	lvl.PushTail(a)
	lvl.PushTail(b)

	assert.Equal(t, 2, lvl.OrderCount)
	assert.Equal(t, domain.Quantity(12), lvl.TotalVolume)
	assert.Same(t, a, lvl.Head())

	lvl.Detach(a)
	assert.Equal(t, 1, lvl.OrderCount)
	assert.Equal(t, domain.Quantity(7), lvl.TotalVolume)
	assert.Same(t, b, lvl.Head())
	assert.Nil(t, a.Level())
}

func TestPriceLevel_ReduceAndGrow(t *testing.T) {
	lvl := NewPriceLevel(100)
	a := &RestingOrder{ID: 1, Quantity: 10}
	lvl.PushTail(a)

	lvl.Reduce(a, 4)
	assert.Equal(t, domain.Quantity(6), a.Quantity)
	assert.Equal(t, domain.Quantity(6), lvl.TotalVolume)

	lvl.Grow(a, 3)
	assert.Equal(t, domain.Quantity(9), a.Quantity)
	assert.Equal(t, domain.Quantity(9), lvl.TotalVolume)
}

func TestPriceLevel_FIFOOrderPreserved(t *testing.T) {
	lvl := NewPriceLevel(100)
	for _, id := range []int64{1, 2, 3} {
		lvl.PushTail(&RestingOrder{ID: id, Quantity: 1})
	}
	var ids []int64
	for _, o := range lvl.Orders() {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestPriceLevel_Empty(t *testing.T) {
	lvl := NewPriceLevel(100)
	assert.True(t, lvl.Empty())
	o := &RestingOrder{ID: 1, Quantity: 1}
	lvl.PushTail(o)
	assert.False(t, lvl.Empty())
	lvl.Detach(o)
	assert.True(t, lvl.Empty())
}
