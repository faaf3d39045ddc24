package engine

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"orderbook/internal/common"
)

const DefaultQueueSize = 1024

var ErrShutdown = errors.New("engine is shut down")

type request struct {
	apply func(book *OrderBook)
	done  chan struct{}
}

// Engine owns an OrderBook and confines it to a single goroutine. Calls from
// any number of goroutines are queued and applied one at a time, in the order
// they were enqueued, and results are handed back as copies.
type Engine struct {
	book     *OrderBook
	requests chan request
	t        *tomb.Tomb
}

// New starts an engine around an empty book. The engine stops when Stop is
// called or ctx is cancelled.
func New(ctx context.Context, queueSize int) *Engine {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	t, _ := tomb.WithContext(ctx)
	e := &Engine{
		book:     NewOrderBook(),
		requests: make(chan request, queueSize),
		t:        t,
	}
	t.Go(e.run)

	log.Info().Int("queue_size", queueSize).Msg("engine running")
	return e
}

func (e *Engine) run() error {
	for {
		select {
		case <-e.t.Dying():
			return nil
		case req := <-e.requests:
			req.apply(e.book)
			close(req.done)
		}
	}
}

// Stop shuts the engine down and waits for its goroutine to exit. Requests
// still queued are dropped and their callers get ErrShutdown.
func (e *Engine) Stop() error {
	e.t.Kill(nil)
	err := e.t.Wait()
	log.Info().Msg("engine stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Done is closed once the engine goroutine has exited.
func (e *Engine) Done() <-chan struct{} {
	return e.t.Dead()
}

// do runs apply on the engine goroutine and waits for it to finish. If ctx is
// cancelled after the request was queued, do returns ctx.Err() but the request
// may still be applied, so callers must not read what apply writes unless do
// returned nil.
func (e *Engine) do(ctx context.Context, apply func(book *OrderBook)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-e.t.Dying():
		return ErrShutdown
	default:
	}

	req := request{apply: apply, done: make(chan struct{})}
	select {
	case e.requests <- req:
	case <-e.t.Dying():
		return ErrShutdown
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-e.t.Dead():
		select {
		case <-req.done:
			return nil
		default:
			return ErrShutdown
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) AddOrder(ctx context.Context, order common.Order) error {
	var result error
	if err := e.do(ctx, func(book *OrderBook) {
		result = book.AddOrder(order)
	}); err != nil {
		return err
	}
	return result
}

func (e *Engine) CancelOrder(ctx context.Context, id common.OrderID) (bool, error) {
	var ok bool
	if err := e.do(ctx, func(book *OrderBook) {
		ok = book.CancelOrder(id)
	}); err != nil {
		return false, err
	}
	return ok, nil
}

func (e *Engine) AmendOrder(ctx context.Context, id common.OrderID, price common.Ticks, qty common.Quantity) (bool, error) {
	var ok bool
	if err := e.do(ctx, func(book *OrderBook) {
		ok = book.AmendOrder(id, price, qty)
	}); err != nil {
		return false, err
	}
	return ok, nil
}

func (e *Engine) Snapshot(ctx context.Context, depth int) (Snapshot, error) {
	var snap Snapshot
	if err := e.do(ctx, func(book *OrderBook) {
		snap = book.Snapshot(depth)
	}); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (e *Engine) Order(ctx context.Context, id common.OrderID) (common.Order, bool, error) {
	var (
		order common.Order
		ok    bool
	)
	if err := e.do(ctx, func(book *OrderBook) {
		order, ok = book.Order(id)
	}); err != nil {
		return common.Order{}, false, err
	}
	return order, ok, nil
}

func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := e.do(ctx, func(book *OrderBook) {
		stats = book.Stats()
	}); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// Verify runs OrderBook.Verify on the engine goroutine.
func (e *Engine) Verify(ctx context.Context) error {
	var result error
	if err := e.do(ctx, func(book *OrderBook) {
		result = book.Verify()
	}); err != nil {
		return err
	}
	return result
}
