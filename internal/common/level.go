package common

import (
	"fmt"
)

// Level is the aggregated view of one price level.
type Level struct {
	Price    Ticks    // Level price
	Quantity Quantity // Sum of the remaining quantity of every order at Price
	Orders   int      // Number of orders resting at Price
}

func (l Level) String() string {
	return fmt.Sprintf("%d x %d (%d orders)", l.Price, l.Quantity, l.Orders)
}
