package common

import (
	"fmt"
)

type Order struct {
	ID       OrderID  // Caller supplied, unique among live orders
	Side     Side     // Order side
	Price    Ticks    // Limiting price in ticks
	Quantity Quantity // Remaining quantity
	Sequence uint64   // Entry sequence, assigned by the book
}

func (order Order) String() string {
	return fmt.Sprintf(
		`ID:       %s
Side:     %v
Price:    %d
Quantity: %d
Sequence: %d`,
		order.ID,
		order.Side,
		order.Price,
		order.Quantity,
		order.Sequence,
	)
}
