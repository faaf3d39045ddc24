package common

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTick  = errors.New("tick size must be positive")
	ErrInvalidPrice = errors.New("invalid price")
	ErrOffTick      = errors.New("price is not a multiple of the tick size")
)

var maxTicks = decimal.NewFromInt(math.MaxInt64)

// Ticks is a price expressed as a whole number of tick size increments.
// Prices inside the book are always ticks so that equal prices compare equal
// no matter how they were computed.
type Ticks int64

// ToTicks converts an exact decimal price into ticks. Prices that do not fall
// on the tick grid are rejected with ErrOffTick.
func ToTicks(price, tick decimal.Decimal) (Ticks, error) {
	if !tick.IsPositive() {
		return 0, ErrInvalidTick
	}
	if !price.Mod(tick).IsZero() {
		return 0, fmt.Errorf("%w: %s (tick %s)", ErrOffTick, price, tick)
	}
	n := price.Div(tick)
	if n.Abs().GreaterThan(maxTicks) {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidPrice, price)
	}
	return Ticks(n.IntPart()), nil
}

// ParseTicks parses a decimal string such as "101.25" into ticks.
func ParseTicks(s string, tick decimal.Decimal) (Ticks, error) {
	price, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return ToTicks(price, tick)
}

// FloatToTicks converts a binary floating point price into ticks, rounding to
// the nearest tick. It is meant for boundaries that only have a float64.
func FloatToTicks(price float64, tick decimal.Decimal) (Ticks, error) {
	if !tick.IsPositive() {
		return 0, ErrInvalidTick
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	n := decimal.NewFromFloat(price).Div(tick).Round(0)
	if n.Abs().GreaterThan(maxTicks) {
		return 0, fmt.Errorf("%w: %v out of range", ErrInvalidPrice, price)
	}
	return Ticks(n.IntPart()), nil
}

// Decimal converts t back into a price for the given tick size.
func (t Ticks) Decimal(tick decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(t)).Mul(tick)
}

// Format renders t with as many decimal places as the tick size carries.
func (t Ticks) Format(tick decimal.Decimal) string {
	return t.Decimal(tick).StringFixed(Places(tick))
}

// Places returns the number of decimal places of a tick size, "0.01" -> 2.
func Places(tick decimal.Decimal) int32 {
	if exp := tick.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}
