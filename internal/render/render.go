// Package render formats book snapshots for terminals and logs.
package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"orderbook/internal/common"
	"orderbook/internal/engine"
)

// Width of the bid column, including padding.
const columnWidth = 32

const rule = "------------------------------------------------"

// Book renders up to depth levels of snap as two columns, bids on the left and
// asks on the right, best price on the first row. A side with fewer levels is
// left blank.
func Book(snap engine.Snapshot, depth int, tick decimal.Decimal) string {
	bids, asks := clip(snap.Bids, depth), clip(snap.Asks, depth)

	var sb strings.Builder
	fmt.Fprintf(&sb, "------ ORDER BOOK (Top %d levels) ------\n", max(depth, 0))
	fmt.Fprintf(&sb, "%-*s%s\n", columnWidth, "Bids (price x qty)", "Asks (price x qty)")

	for i := range max(len(bids), len(asks)) {
		var left, right string
		if i < len(bids) {
			left = Level(bids[i], tick)
		}
		if i < len(asks) {
			right = Level(asks[i], tick)
		}
		line := fmt.Sprintf("%-*s%s", columnWidth, left, right)
		sb.WriteString(strings.TrimRight(line, " "))
		sb.WriteByte('\n')
	}

	sb.WriteString(rule)
	sb.WriteByte('\n')
	return sb.String()
}

// Level renders one level as "price x qty".
func Level(l common.Level, tick decimal.Decimal) string {
	return fmt.Sprintf("%s x %d", l.Price.Format(tick), l.Quantity)
}

func clip(levels []common.Level, depth int) []common.Level {
	if depth <= 0 {
		return nil
	}
	if len(levels) > depth {
		return levels[:depth]
	}
	return levels
}
