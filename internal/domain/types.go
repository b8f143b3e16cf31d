// Package domain defines the core value types shared across the trading
// pipeline: order types, executed trades, positions, and market data bars.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderType identifies the action a strategy wants to take on a symbol.
type OrderType string

// The closed set of order types. Hold is a valid strategy output but never
// reaches a broker.
const (
	Buy      OrderType = "BUY"
	Sell     OrderType = "SELL"
	BuyCall  OrderType = "BUY_CALL"
	BuyPut   OrderType = "BUY_PUT"
	SellCall OrderType = "SELL_CALL"
	SellPut  OrderType = "SELL_PUT"
	Hold     OrderType = "HOLD"
)

// IsBuy reports whether the order type opens or adds to a position.
func (o OrderType) IsBuy() bool {
	return o == Buy || o == BuyCall || o == BuyPut
}

// IsSell reports whether the order type reduces or closes a position.
func (o OrderType) IsSell() bool {
	return o == Sell || o == SellCall || o == SellPut
}

// ParseOrderType converts a string into an OrderType, accepting any case.
func ParseOrderType(s string) (OrderType, error) {
	ot := OrderType(strings.ToUpper(strings.TrimSpace(s)))
	switch ot {
	case Buy, Sell, BuyCall, BuyPut, SellCall, SellPut, Hold:
		return ot, nil
	}
	return "", fmt.Errorf("unknown order type %q", s)
}

// Trade is an immutable record of one executed (or proposed) order. Executed
// trades are appended to the broker's history and never mutated.
type Trade struct {
	Symbol    string
	OrderType OrderType
	Quantity  float64
	Price     float64
	Timestamp time.Time
}

// Notional returns the cash value of the trade (quantity times price).
func (t Trade) Notional() float64 {
	return t.Quantity * t.Price
}

// Position is the net holding in one symbol together with its cost basis.
// Invariant: Quantity == 0 implies AvgPrice == 0 (a closed position carries
// no stale cost basis).
type Position struct {
	Symbol   string
	Quantity float64
	AvgPrice float64
}

// Exposure returns the notional value of the position at its cost basis.
func (p Position) Exposure() float64 {
	return p.Quantity * p.AvgPrice
}

// Bar is one OHLCV market data point for a symbol.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}
