package engine

import "orderbook/internal/common"

// Snapshot is an aggregated, depth limited view of both sides of the book,
// best price first. It shares no memory with the book.
type Snapshot struct {
	Bids []common.Level
	Asks []common.Level
}

// Stats counts price levels and resting orders per side.
type Stats struct {
	BidLevels int
	BidOrders int
	AskLevels int
	AskOrders int
}
