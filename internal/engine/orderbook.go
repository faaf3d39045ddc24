package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"orderbook/internal/book"
	"orderbook/internal/common"
)

var (
	ErrInvalidOrder = errors.New("invalid order")
	ErrOutOfSync    = errors.New("registry out of sync with ladders")
)

// OrderBook holds the resting orders of a single instrument in price-time
// priority. It never matches orders against each other.
//
// OrderBook is not safe for concurrent use. Every method runs to completion
// without blocking; callers sharing a book across goroutines must serialize
// access themselves, or go through an Engine.
type OrderBook struct {
	bids     *book.Ladder
	asks     *book.Ladder
	registry *Registry

	// Entry sequence of the last order placed or re-priced.
	seq uint64
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids:     book.NewBidLadder(),
		asks:     book.NewAskLadder(),
		registry: NewRegistry(),
	}
}

func (ob *OrderBook) ladder(side common.Side) *book.Ladder {
	if side == common.Buy {
		return ob.bids
	}
	return ob.asks
}

// AddOrder rests a new order at the back of its price level. The order's
// Sequence is assigned by the book and any value passed in is ignored.
//
// It fails with ErrInvalidOrder, leaving the book untouched, when the order
// has no id, an unknown side, a non-positive price, a zero quantity, an id
// that is already live, or a quantity its level's aggregate cannot hold.
func (ob *OrderBook) AddOrder(order common.Order) error {
	if err := ob.validate(order); err != nil {
		log.Debug().
			Err(err).
			Str("order_id", string(order.ID)).
			Msg("order rejected")
		return err
	}

	ob.seq++
	order.Sequence = ob.seq

	handle := ob.ladder(order.Side).Insert(order)
	if err := ob.registry.Register(order.ID, order.Side, order.Price, handle); err != nil {
		// validate already ruled out duplicates.
		log.Panic().Err(err).Str("order_id", string(order.ID)).Msg("order registered twice")
	}
	return nil
}

func (ob *OrderBook) validate(order common.Order) error {
	switch {
	case order.ID == "":
		return fmt.Errorf("%w: empty order id", ErrInvalidOrder)
	case !order.Side.Valid():
		return fmt.Errorf("%w: %w %d", ErrInvalidOrder, common.ErrInvalidSide, order.Side)
	case order.Price <= 0:
		return fmt.Errorf("%w: non-positive price %d", ErrInvalidOrder, order.Price)
	case order.Quantity == 0:
		return fmt.Errorf("%w: zero quantity", ErrInvalidOrder)
	}
	if _, ok := ob.registry.Locate(order.ID); ok {
		return fmt.Errorf("%w: duplicate order id %q", ErrInvalidOrder, order.ID)
	}
	if !ob.fits(order.Side, order.Price, 0, order.Quantity) {
		return fmt.Errorf("%w: quantity %d overflows level %d", ErrInvalidOrder, order.Quantity, order.Price)
	}
	return nil
}

// fits reports whether the level at price can take qty more once release has
// been taken out of its aggregate.
func (ob *OrderBook) fits(side common.Side, price common.Ticks, release, qty common.Quantity) bool {
	lvl, ok := ob.ladder(side).Level(price)
	if !ok {
		return true
	}
	return qty <= math.MaxUint64-(lvl.Quantity-release)
}

// CancelOrder removes a live order. Cancelling an unknown or already removed
// order is a no-op that returns false.
func (ob *OrderBook) CancelOrder(id common.OrderID) bool {
	loc, ok := ob.registry.Locate(id)
	if !ok {
		log.Debug().Str("order_id", string(id)).Msg("cancel of unknown order")
		return false
	}

	ob.remove(id, loc)
	return true
}

func (ob *OrderBook) remove(id common.OrderID, loc Location) {
	if _, err := ob.ladder(loc.Side).Remove(loc.Handle); err != nil {
		log.Panic().Err(err).Str("order_id", string(id)).Msg("stale handle in registry")
	}
	ob.registry.Unregister(id)
}

// AmendOrder changes the price and quantity of a live order and reports
// whether the order was found.
//
// Keeping the price only adjusts the quantity in place, so the order keeps its
// place in the queue. A new price takes the order out of its level and rests
// it at the back of the new one with a fresh sequence. A zero quantity
// cancels the order. A non-positive price with a non-zero quantity, or a
// quantity the target level's aggregate cannot hold, is refused and returns
// false.
func (ob *OrderBook) AmendOrder(id common.OrderID, price common.Ticks, qty common.Quantity) bool {
	loc, ok := ob.registry.Locate(id)
	if !ok {
		log.Debug().Str("order_id", string(id)).Msg("amend of unknown order")
		return false
	}

	if qty == 0 {
		ob.remove(id, loc)
		return true
	}
	if price <= 0 {
		log.Debug().
			Str("order_id", string(id)).
			Int64("price", int64(price)).
			Msg("amend rejected: non-positive price")
		return false
	}

	ladder := ob.ladder(loc.Side)
	order, err := ladder.Order(loc.Handle)
	if err != nil {
		log.Panic().Err(err).Str("order_id", string(id)).Msg("stale handle in registry")
	}

	release := common.Quantity(0)
	if price == loc.Price {
		release = order.Quantity
	}
	if !ob.fits(loc.Side, price, release, qty) {
		log.Debug().
			Str("order_id", string(id)).
			Uint64("quantity", uint64(qty)).
			Msg("amend rejected: level quantity overflow")
		return false
	}

	if price == loc.Price {
		if err := ladder.AdjustQuantity(loc.Handle, qty); err != nil {
			log.Panic().Err(err).Str("order_id", string(id)).Msg("stale handle in registry")
		}
		return true
	}

	ob.remove(id, loc)

	ob.seq++
	order.Price = price
	order.Quantity = qty
	order.Sequence = ob.seq

	handle := ladder.Insert(order)
	if err := ob.registry.Register(id, order.Side, price, handle); err != nil {
		log.Panic().Err(err).Str("order_id", string(id)).Msg("order registered twice")
	}
	return true
}

// Snapshot returns up to depth aggregated levels per side, best price first.
func (ob *OrderBook) Snapshot(depth int) Snapshot {
	return Snapshot{
		Bids: ob.bids.BestN(depth),
		Asks: ob.asks.BestN(depth),
	}
}

// Order returns a copy of a live order.
func (ob *OrderBook) Order(id common.OrderID) (common.Order, bool) {
	loc, ok := ob.registry.Locate(id)
	if !ok {
		return common.Order{}, false
	}

	order, err := ob.ladder(loc.Side).Order(loc.Handle)
	if err != nil {
		log.Panic().Err(err).Str("order_id", string(id)).Msg("stale handle in registry")
	}
	return order, true
}

// Best returns the best priced level of a side. A matching engine looks at
// Best(side.Opposite()) to find the level an incoming order would hit.
func (ob *OrderBook) Best(side common.Side) (common.Level, bool) {
	return ob.ladder(side).Best()
}

// Queue returns copies of the orders resting at one price, oldest first.
func (ob *OrderBook) Queue(side common.Side, price common.Ticks) []common.Order {
	return ob.ladder(side).Queue(price)
}

// Len returns the number of live orders.
func (ob *OrderBook) Len() int {
	return ob.registry.Len()
}

func (ob *OrderBook) Stats() Stats {
	return Stats{
		BidLevels: ob.bids.Levels(),
		BidOrders: ob.bids.Orders(),
		AskLevels: ob.asks.Levels(),
		AskOrders: ob.asks.Orders(),
	}
}

// Verify audits both ladders and checks that the registry and the ladders
// describe the same set of orders.
func (ob *OrderBook) Verify() error {
	if err := ob.bids.Verify(); err != nil {
		return fmt.Errorf("bids: %w", err)
	}
	if err := ob.asks.Verify(); err != nil {
		return fmt.Errorf("asks: %w", err)
	}

	if n := ob.bids.Orders() + ob.asks.Orders(); n != ob.registry.Len() {
		return fmt.Errorf("%w: %d resting orders, %d registered", ErrOutOfSync, n, ob.registry.Len())
	}

	var err error
	ob.registry.Range(func(id common.OrderID, loc Location) bool {
		order, herr := ob.ladder(loc.Side).Order(loc.Handle)
		switch {
		case herr != nil:
			err = fmt.Errorf("%w: order %s: %w", ErrOutOfSync, id, herr)
		case order.ID != id || order.Price != loc.Price || order.Side != loc.Side:
			err = fmt.Errorf("%w: order %s registered at %v/%d, rests as %s at %v/%d",
				ErrOutOfSync, id, loc.Side, loc.Price, order.ID, order.Side, order.Price)
		}
		return err == nil
	})
	return err
}
