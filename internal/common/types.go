package common

import (
	"errors"
	"strings"
)

var ErrInvalidSide = errors.New("invalid side")

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// Valid reports whether s is one of Buy or Sell.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// Opposite returns the side an order on s would trade against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// ParseSide accepts "buy"/"bid" and "sell"/"ask", case insensitive.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "bid":
		return Buy, nil
	case "sell", "ask":
		return Sell, nil
	}
	return Buy, ErrInvalidSide
}

// OrderID is the caller supplied identifier of an order. It is opaque to the
// book and only compared for equality.
type OrderID string

// Quantity is a number of units. A live order always has Quantity > 0.
type Quantity uint64
