// Package book implements one side of a limit order book: price levels kept in
// price priority, each holding a FIFO queue of resting orders.
package book

import (
	"errors"
	"fmt"

	"github.com/tidwall/btree"

	"orderbook/internal/common"
)

var (
	ErrInvalidHandle = errors.New("invalid ladder handle")
	ErrCorrupt       = errors.New("ladder invariant violated")
)

// Handle is a stable reference to an order resting in a Ladder. It survives
// any mutation of other orders and levels and becomes invalid only once its
// own order is removed.
type Handle struct {
	n *node
}

// Valid reports whether h still refers to a resting order.
func (h Handle) Valid() bool {
	return h.n != nil && h.n.level != nil
}

// Ladder is the set of price levels of one side of the book.
type Ladder struct {
	side   common.Side
	levels *btree.BTreeG[*level]
	orders int

	// probe is reused as the search key for price lookups.
	probe level
}

func newLadder(side common.Side, less func(a, b *level) bool) *Ladder {
	return &Ladder{
		side:   side,
		levels: btree.NewBTreeGOptions(less, btree.Options{NoLocks: true}),
	}
}

// New returns the ladder for the given side.
func New(side common.Side) *Ladder {
	if side == common.Buy {
		return NewBidLadder()
	}
	return NewAskLadder()
}

func (l *Ladder) Side() common.Side { return l.side }

// Levels returns the number of price levels.
func (l *Ladder) Levels() int { return l.levels.Len() }

// Orders returns the number of resting orders across every level.
func (l *Ladder) Orders() int { return l.orders }

func (l *Ladder) find(price common.Ticks) (*level, bool) {
	l.probe.price = price
	return l.levels.GetMut(&l.probe)
}

// Insert appends order at the tail of the level at order.Price, creating the
// level when it does not exist yet. The caller routes orders by side: Insert
// panics if order.Side is not the ladder's side. It does not check that the
// level aggregate has room for order.Quantity, see Level.
func (l *Ladder) Insert(order common.Order) Handle {
	if order.Side != l.side {
		panic(fmt.Sprintf("book: %s order %s inserted into %s ladder", order.Side, order.ID, l.side))
	}

	lvl, ok := l.find(order.Price)
	if !ok {
		lvl = &level{price: order.Price, ladder: l}
		l.levels.Set(lvl)
	}

	n := &node{order: order}
	lvl.pushBack(n)
	l.orders++
	return Handle{n: n}
}

func (l *Ladder) resolve(h Handle) (*node, error) {
	if !h.Valid() || h.n.level.ladder != l {
		return nil, ErrInvalidHandle
	}
	return h.n, nil
}

// Remove takes the order referenced by h out of its level and returns the
// quantity it still had. A level left without orders is deleted.
func (l *Ladder) Remove(h Handle) (common.Quantity, error) {
	n, err := l.resolve(h)
	if err != nil {
		return 0, err
	}

	lvl := n.level
	qty := n.order.Quantity
	lvl.unlink(n)
	l.orders--

	if lvl.count == 0 {
		l.levels.Delete(lvl)
	}
	return qty, nil
}

// AdjustQuantity sets the remaining quantity of the order referenced by h
// without touching its queue position. A quantity of zero removes the order.
func (l *Ladder) AdjustQuantity(h Handle, qty common.Quantity) error {
	if qty == 0 {
		_, err := l.Remove(h)
		return err
	}

	n, err := l.resolve(h)
	if err != nil {
		return err
	}

	lvl := n.level
	lvl.quantity -= n.order.Quantity
	lvl.quantity += qty
	n.order.Quantity = qty
	return nil
}

// Order returns a copy of the order referenced by h.
func (l *Ladder) Order(h Handle) (common.Order, error) {
	n, err := l.resolve(h)
	if err != nil {
		return common.Order{}, err
	}
	return n.order, nil
}

// Best returns the best priced level.
func (l *Ladder) Best() (common.Level, bool) {
	lvl, ok := l.levels.Min()
	if !ok {
		return common.Level{}, false
	}
	return lvl.view(), true
}

// BestN returns up to n levels in priority order, best price first.
func (l *Ladder) BestN(n int) []common.Level {
	if n <= 0 {
		return []common.Level{}
	}

	out := make([]common.Level, 0, min(n, l.levels.Len()))
	l.levels.Scan(func(lvl *level) bool {
		out = append(out, lvl.view())
		return len(out) < n
	})
	return out
}

// Level returns the aggregate of the level at price.
func (l *Ladder) Level(price common.Ticks) (common.Level, bool) {
	lvl, ok := l.find(price)
	if !ok {
		return common.Level{}, false
	}
	return lvl.view(), true
}

// Queue returns copies of the orders resting at price, oldest first.
func (l *Ladder) Queue(price common.Ticks) []common.Order {
	lvl, ok := l.find(price)
	if !ok {
		return nil
	}

	orders := make([]common.Order, 0, lvl.count)
	for n := lvl.head; n != nil; n = n.next {
		orders = append(orders, n.order)
	}
	return orders
}

// Verify walks the whole ladder and checks its invariants: levels are in
// strict priority order and never empty, every aggregate equals the sum of its
// queue, and the queue links are consistent.
func (l *Ladder) Verify() error {
	var (
		err    error
		prev   *level
		orders int
	)

	l.levels.Scan(func(lvl *level) bool {
		if prev != nil && !l.levels.Less(prev, lvl) {
			err = fmt.Errorf("%w: level %d out of order after %d", ErrCorrupt, lvl.price, prev.price)
			return false
		}
		if lvl.ladder != l {
			err = fmt.Errorf("%w: level %d belongs to another ladder", ErrCorrupt, lvl.price)
			return false
		}
		if lvl.count == 0 || lvl.head == nil {
			err = fmt.Errorf("%w: empty level %d", ErrCorrupt, lvl.price)
			return false
		}

		var (
			sum   common.Quantity
			count int
			back  *node
		)
		for n := lvl.head; n != nil; n = n.next {
			switch {
			case n.level != lvl:
				err = fmt.Errorf("%w: order %s has a stale level", ErrCorrupt, n.order.ID)
			case n.prev != back:
				err = fmt.Errorf("%w: order %s has a broken back link", ErrCorrupt, n.order.ID)
			case n.order.Price != lvl.price:
				err = fmt.Errorf("%w: order %s priced %d at level %d", ErrCorrupt, n.order.ID, n.order.Price, lvl.price)
			case n.order.Side != l.side:
				err = fmt.Errorf("%w: order %s on the wrong side", ErrCorrupt, n.order.ID)
			case n.order.Quantity == 0:
				err = fmt.Errorf("%w: order %s has no quantity", ErrCorrupt, n.order.ID)
			case sum+n.order.Quantity < sum:
				err = fmt.Errorf("%w: level %d aggregate overflows", ErrCorrupt, lvl.price)
			}
			if err != nil {
				return false
			}
			sum += n.order.Quantity
			count++
			back = n
		}

		if back != lvl.tail {
			err = fmt.Errorf("%w: level %d tail mismatch", ErrCorrupt, lvl.price)
			return false
		}
		if sum != lvl.quantity || count != lvl.count {
			err = fmt.Errorf("%w: level %d aggregate %d/%d, queue holds %d/%d",
				ErrCorrupt, lvl.price, lvl.quantity, lvl.count, sum, count)
			return false
		}

		orders += count
		prev = lvl
		return true
	})
	if err != nil {
		return err
	}

	if orders != l.orders {
		return fmt.Errorf("%w: %d orders counted, %d tracked", ErrCorrupt, orders, l.orders)
	}
	return nil
}
