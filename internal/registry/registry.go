// Package registry implements C5: the id -> resting order lookup used for
// O(1) cancel and modify. Entries live exactly as long as the underlying
// resting order: created when an order first rests, removed the instant it
// is fully filled or cancelled.
package registry

import "matchbook/internal/level"

type Registry struct {
	orders map[int64]*level.RestingOrder
}

func New() *Registry {
	return &Registry{orders: make(map[int64]*level.RestingOrder)}
}

func (r *Registry) Put(o *level.RestingOrder) { r.orders[o.ID] = o }

func (r *Registry) Get(id int64) (*level.RestingOrder, bool) {
	o, ok := r.orders[id]
	return o, ok
}

func (r *Registry) Delete(id int64) { delete(r.orders, id) }

func (r *Registry) Len() int { return len(r.orders) }
