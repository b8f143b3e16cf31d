package broker

import (
	"context"
	"time"

	"tradebot/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*PaperBroker)(nil)

// PaperBroker simulates order execution against an in-memory ledger. It is
// the broker used for paper trading and backtests; no external calls are
// made and every order fills immediately at the requested price.
type PaperBroker struct {
	ledger *ledger
	now    func() time.Time
}

// NewPaperBroker creates a PaperBroker with the given starting cash balance.
func NewPaperBroker(initialBalance float64) *PaperBroker {
	return &PaperBroker{
		ledger: newLedger(initialBalance),
		now:    time.Now,
	}
}

// Name returns "paper".
func (b *PaperBroker) Name() string {
	return "paper"
}

// PlaceOrder applies the order to the in-memory ledger and returns the
// recorded trade.
func (b *PaperBroker) PlaceOrder(_ context.Context, symbol string, orderType domain.OrderType, quantity, fillPrice float64) (*domain.Trade, error) {
	return b.ledger.applyOrder(symbol, orderType, quantity, fillPrice, b.now())
}

// GetPositions returns a snapshot of all simulated positions.
func (b *PaperBroker) GetPositions() []domain.Position {
	return b.ledger.snapshotPositions()
}

// GetBalance returns the simulated cash balance.
func (b *PaperBroker) GetBalance() float64 {
	return b.ledger.balance()
}

// TradeHistory returns all executed trades in execution order.
func (b *PaperBroker) TradeHistory() []domain.Trade {
	return b.ledger.snapshotHistory()
}
