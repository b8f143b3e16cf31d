// Package broker defines the Broker interface and provides implementations
// for executing orders against a paper ledger or the Alpaca brokerage API.
//
// The broker owns the account ledger (cash balance, per-symbol positions,
// and trade history) and is the only component allowed to mutate it.
package broker

import (
	"context"
	"errors"

	"tradebot/internal/domain"
)

// Sentinel errors for order execution failures. All of them leave the ledger
// unchanged.
var (
	// ErrInvalidOrder rejects orders with a non-positive quantity or price,
	// or an order type that is not executable (HOLD).
	ErrInvalidOrder = errors.New("broker: invalid order")

	// ErrInsufficientPosition rejects sells that would take a position
	// negative.
	ErrInsufficientPosition = errors.New("broker: insufficient position")

	// ErrUnavailable signals that the remote brokerage could not be reached
	// or rejected the request. No local state was mutated.
	ErrUnavailable = errors.New("broker: unavailable")
)

// ErrLedgerCorrupt is the panic value wrapper for ledger invariant
// violations. It indicates a programming defect; callers must not recover
// from it.
var ErrLedgerCorrupt = errors.New("broker: ledger corrupted")

// Broker abstracts order execution and account state. Implementations must
// make PlaceOrder atomic with respect to concurrent reads: a reader never
// observes a partially applied order.
type Broker interface {
	// Name returns the broker identifier (e.g. "paper", "alpaca").
	Name() string

	// PlaceOrder executes an order and returns the resulting immutable
	// trade record. The order type must be from the buy or sell family;
	// HOLD never reaches a broker.
	PlaceOrder(ctx context.Context, symbol string, orderType domain.OrderType, quantity, fillPrice float64) (*domain.Trade, error)

	// GetPositions returns a snapshot of all current positions.
	GetPositions() []domain.Position

	// GetBalance returns the current cash balance.
	GetBalance() float64

	// TradeHistory returns a snapshot of all executed trades in order.
	TradeHistory() []domain.Trade
}
