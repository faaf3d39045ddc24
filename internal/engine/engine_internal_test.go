package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderbook/internal/common"
)

// blockEngine parks the engine goroutine inside a request until the returned
// func is called.
func blockEngine(t *testing.T, e *Engine) (release func()) {
	t.Helper()
	started := make(chan struct{})
	unblock := make(chan struct{})
	go func() {
		_ = e.do(context.Background(), func(*OrderBook) {
			close(started)
			<-unblock
		})
	}()
	<-started
	return func() { close(unblock) }
}

func TestEngine_ContextCancelledWhileQueued(t *testing.T) {
	e := New(context.Background(), 4)
	t.Cleanup(func() {
		_ = e.Stop()
	})
	bg := context.Background()
	require.NoError(t, e.AddOrder(bg, common.Order{ID: "1", Side: common.Buy, Price: 100, Quantity: 5}))

	release := blockEngine(t, e)

	type result struct {
		ok   bool
		snap Snapshot
		err  error
	}
	ctx, cancel := context.WithCancel(bg)
	results := make(chan result, 2)
	go func() {
		ok, err := e.CancelOrder(ctx, "1")
		results <- result{ok: ok, err: err}
	}()
	go func() {
		snap, err := e.Snapshot(ctx, 5)
		results <- result{snap: snap, err: err}
	}()

	require.Eventually(t, func() bool {
		return len(e.requests) == 2
	}, time.Second, time.Millisecond)
	cancel()

	for range 2 {
		r := <-results
		assert.ErrorIs(t, r.err, context.Canceled)
		assert.False(t, r.ok)
		assert.Nil(t, r.snap.Bids)
		assert.Nil(t, r.snap.Asks)
	}

	// Queued requests still run once the engine is free.
	release()
	require.Eventually(t, func() bool {
		stats, err := e.Stats(bg)
		return err == nil && stats.BidOrders == 0
	}, time.Second, time.Millisecond)
	require.NoError(t, e.Verify(bg))
}
