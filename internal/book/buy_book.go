package book

import "orderbook/internal/common"

// bidLess sorts bid levels greatest price first, so the btree minimum is the
// best bid.
func bidLess(a, b *level) bool {
	return a.price > b.price
}

// NewBidLadder creates the buy side ladder, best (highest) price first.
func NewBidLadder() *Ladder {
	return newLadder(common.Buy, bidLess)
}
