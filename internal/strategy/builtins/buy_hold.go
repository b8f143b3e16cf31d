package builtins

import (
	"tradebot/internal/domain"
	"tradebot/internal/strategy"
)

var _ strategy.Strategy = (*BuyHold)(nil)

// BuyHold buys on the first bar it sees and holds forever. Useful as a
// benchmark for backtests.
type BuyHold struct {
	bought bool
}

// NewBuyHold creates a new BuyHold strategy.
func NewBuyHold() *BuyHold {
	return &BuyHold{}
}

// Name returns "buy-hold".
func (s *BuyHold) Name() string {
	return "buy-hold"
}

// GenerateSignal buys exactly once, then holds.
func (s *BuyHold) GenerateSignal(bar domain.Bar) domain.OrderType {
	if s.bought {
		return domain.Hold
	}
	s.bought = true
	return domain.Buy
}
