package book

import "orderbook/internal/common"

// askLess sorts ask levels least price first, so the btree minimum is the
// best ask.
func askLess(a, b *level) bool {
	return a.price < b.price
}

// NewAskLadder creates the sell side ladder, best (lowest) price first.
func NewAskLadder() *Ladder {
	return newLadder(common.Sell, askLess)
}
