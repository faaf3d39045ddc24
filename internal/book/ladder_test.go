package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderbook/internal/common"
)

// --- Setup & Helpers --------------------------------------------------------

func newOrder(id string, side common.Side, price common.Ticks, qty common.Quantity) common.Order {
	return common.Order{
		ID:       common.OrderID(id),
		Side:     side,
		Price:    price,
		Quantity: qty,
	}
}

func queueIDs(l *Ladder, price common.Ticks) []common.OrderID {
	var ids []common.OrderID
	for _, o := range l.Queue(price) {
		ids = append(ids, o.ID)
	}
	return ids
}

// --- Tests ------------------------------------------------------------------

func TestBidLadder_Ordering(t *testing.T) {
	l := NewBidLadder()
	l.Insert(newOrder("1", common.Buy, 100, 500))
	l.Insert(newOrder("2", common.Buy, 101, 200))
	l.Insert(newOrder("3", common.Buy, 99, 10))
	l.Insert(newOrder("5", common.Buy, 101, 100))

	assert.Equal(t, []common.Level{
		{Price: 101, Quantity: 300, Orders: 2},
		{Price: 100, Quantity: 500, Orders: 1},
	}, l.BestN(2))
	assert.Equal(t, []common.OrderID{"2", "5"}, queueIDs(l, 101))
	assert.Equal(t, 3, l.Levels())
	assert.Equal(t, 4, l.Orders())
	require.NoError(t, l.Verify())
}

func TestAskLadder_Ordering(t *testing.T) {
	l := NewAskLadder()
	l.Insert(newOrder("3", common.Sell, 102, 300))
	l.Insert(newOrder("4", common.Sell, 103, 400))
	l.Insert(newOrder("6", common.Sell, 101, 1))

	best, ok := l.Best()
	require.True(t, ok)
	assert.Equal(t, common.Ticks(101), best.Price)

	levels := l.BestN(10)
	require.Len(t, levels, 3)
	for i := 1; i < len(levels); i++ {
		assert.Less(t, levels[i-1].Price, levels[i].Price, "asks should be sorted low -> high")
	}
	require.NoError(t, l.Verify())
}

func TestLadder_BestN_Bounds(t *testing.T) {
	l := NewBidLadder()
	assert.Empty(t, l.BestN(5))
	assert.NotNil(t, l.BestN(5))

	l.Insert(newOrder("1", common.Buy, 100, 1))
	assert.Empty(t, l.BestN(0))
	assert.Empty(t, l.BestN(-3))
	assert.Len(t, l.BestN(5), 1)

	_, ok := NewAskLadder().Best()
	assert.False(t, ok)
}

func TestLadder_RemoveKeepsOtherHandles(t *testing.T) {
	l := NewBidLadder()
	h1 := l.Insert(newOrder("1", common.Buy, 100, 10))
	h2 := l.Insert(newOrder("2", common.Buy, 100, 20))
	h3 := l.Insert(newOrder("3", common.Buy, 100, 30))

	// Removing from the front and middle must not disturb later handles.
	qty, err := l.Remove(h1)
	require.NoError(t, err)
	assert.Equal(t, common.Quantity(10), qty)

	o, err := l.Order(h3)
	require.NoError(t, err)
	assert.Equal(t, common.OrderID("3"), o.ID)

	qty, err = l.Remove(h2)
	require.NoError(t, err)
	assert.Equal(t, common.Quantity(20), qty)

	assert.Equal(t, []common.OrderID{"3"}, queueIDs(l, 100))
	assert.Equal(t, []common.Level{{Price: 100, Quantity: 30, Orders: 1}}, l.BestN(1))
	require.NoError(t, l.Verify())
}

func TestLadder_RemoveTailThenAppend(t *testing.T) {
	l := NewAskLadder()
	l.Insert(newOrder("1", common.Sell, 50, 1))
	h2 := l.Insert(newOrder("2", common.Sell, 50, 2))

	_, err := l.Remove(h2)
	require.NoError(t, err)
	l.Insert(newOrder("3", common.Sell, 50, 3))

	assert.Equal(t, []common.OrderID{"1", "3"}, queueIDs(l, 50))
	require.NoError(t, l.Verify())
}

func TestLadder_EmptyLevelIsPruned(t *testing.T) {
	l := NewBidLadder()
	h := l.Insert(newOrder("1", common.Buy, 100, 10))
	l.Insert(newOrder("2", common.Buy, 99, 10))

	_, err := l.Remove(h)
	require.NoError(t, err)

	assert.Equal(t, 1, l.Levels())
	assert.Nil(t, l.Queue(100))
	best, ok := l.Best()
	require.True(t, ok)
	assert.Equal(t, common.Ticks(99), best.Price)
	require.NoError(t, l.Verify())
}

func TestLadder_InvalidHandle(t *testing.T) {
	l := NewBidLadder()
	h := l.Insert(newOrder("1", common.Buy, 100, 10))

	_, err := l.Remove(h)
	require.NoError(t, err)

	t.Run("double remove", func(t *testing.T) {
		_, err := l.Remove(h)
		assert.ErrorIs(t, err, ErrInvalidHandle)
	})

	t.Run("stale adjust", func(t *testing.T) {
		assert.ErrorIs(t, l.AdjustQuantity(h, 5), ErrInvalidHandle)
	})

	t.Run("zero handle", func(t *testing.T) {
		_, err := l.Order(Handle{})
		assert.ErrorIs(t, err, ErrInvalidHandle)
		assert.False(t, Handle{}.Valid())
	})

	t.Run("foreign handle", func(t *testing.T) {
		other := NewBidLadder()
		fh := other.Insert(newOrder("9", common.Buy, 100, 10))
		_, err := l.Remove(fh)
		assert.ErrorIs(t, err, ErrInvalidHandle)
		assert.True(t, fh.Valid())
	})
}

func TestLadder_AdjustQuantity(t *testing.T) {
	l := NewAskLadder()
	h1 := l.Insert(newOrder("1", common.Sell, 102, 300))
	l.Insert(newOrder("2", common.Sell, 102, 100))

	t.Run("decrease keeps position", func(t *testing.T) {
		require.NoError(t, l.AdjustQuantity(h1, 50))
		assert.Equal(t, []common.OrderID{"1", "2"}, queueIDs(l, 102))
		assert.Equal(t, []common.Level{{Price: 102, Quantity: 150, Orders: 2}}, l.BestN(1))
	})

	t.Run("increase keeps position", func(t *testing.T) {
		require.NoError(t, l.AdjustQuantity(h1, 500))
		assert.Equal(t, []common.OrderID{"1", "2"}, queueIDs(l, 102))
		assert.Equal(t, []common.Level{{Price: 102, Quantity: 600, Orders: 2}}, l.BestN(1))
	})

	t.Run("zero removes", func(t *testing.T) {
		require.NoError(t, l.AdjustQuantity(h1, 0))
		assert.False(t, h1.Valid())
		assert.Equal(t, []common.OrderID{"2"}, queueIDs(l, 102))
	})

	require.NoError(t, l.Verify())
}

func TestLadder_InsertWrongSidePanics(t *testing.T) {
	l := NewAskLadder()
	assert.Panics(t, func() {
		l.Insert(newOrder("1", common.Buy, 100, 1))
	})
	assert.Zero(t, l.Levels())
	assert.Zero(t, l.Orders())
}

func TestLadder_Level(t *testing.T) {
	l := NewBidLadder()
	l.Insert(newOrder("1", common.Buy, 100, 10))
	l.Insert(newOrder("2", common.Buy, 100, 15))

	lvl, ok := l.Level(100)
	require.True(t, ok)
	assert.Equal(t, common.Level{Price: 100, Quantity: 25, Orders: 2}, lvl)

	_, ok = l.Level(101)
	assert.False(t, ok)
}

func TestLadder_VerifyDetectsWrappedAggregate(t *testing.T) {
	l := NewBidLadder()
	l.Insert(newOrder("1", common.Buy, 100, 1<<63+1))
	l.Insert(newOrder("2", common.Buy, 100, 1<<63+1))

	assert.ErrorIs(t, l.Verify(), ErrCorrupt)
}

func TestLadder_New(t *testing.T) {
	assert.Equal(t, common.Buy, New(common.Buy).Side())
	assert.Equal(t, common.Sell, New(common.Sell).Side())
}
