package engine

import (
	"fmt"

	"orderbook/internal/book"
	"orderbook/internal/common"
)

// Location is where a live order rests: its side, its price level and the
// handle of its queue position. It never holds a copy of the order itself.
type Location struct {
	Side   common.Side
	Price  common.Ticks
	Handle book.Handle
}

// Registry maps the id of every live order to its Location.
type Registry struct {
	entries map[common.OrderID]Location
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[common.OrderID]Location),
	}
}

// Locate returns the location of a live order.
func (r *Registry) Locate(id common.OrderID) (Location, bool) {
	loc, ok := r.entries[id]
	return loc, ok
}

// Register records a new live order. An id that is already live is rejected
// and the existing entry is left untouched.
func (r *Registry) Register(id common.OrderID, side common.Side, price common.Ticks, handle book.Handle) error {
	if _, ok := r.entries[id]; ok {
		return fmt.Errorf("%w: duplicate order id %q", ErrInvalidOrder, id)
	}
	r.entries[id] = Location{
		Side:   side,
		Price:  price,
		Handle: handle,
	}
	return nil
}

func (r *Registry) Unregister(id common.OrderID) {
	delete(r.entries, id)
}

// Len returns the number of live orders.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Range calls fn for every live order until fn returns false.
func (r *Registry) Range(fn func(id common.OrderID, loc Location) bool) {
	for id, loc := range r.entries {
		if !fn(id, loc) {
			return
		}
	}
}
