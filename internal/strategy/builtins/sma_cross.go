// Package builtins provides built-in strategy implementations that ship with
// the trading bot.
package builtins

import (
	"tradebot/internal/domain"
	"tradebot/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*SMACross)(nil)

// SMACross implements a simple moving average crossover strategy. It
// generates a buy signal when the short-period SMA crosses above the
// long-period SMA, and a sell signal when it crosses below. Until both
// averages have enough data, and between crossings, it holds.
type SMACross struct {
	shortPeriod int
	longPeriod  int
	closes      []float64
	prevDiff    float64
	primed      bool
}

// NewSMACross creates a new SMACross strategy with the specified short and
// long moving average periods.
func NewSMACross(short, long int) *SMACross {
	return &SMACross{
		shortPeriod: short,
		longPeriod:  long,
	}
}

// Name returns "sma-cross".
func (s *SMACross) Name() string {
	return "sma-cross"
}

// GenerateSignal feeds the bar's close into the price history and reports a
// crossover when one occurs.
func (s *SMACross) GenerateSignal(bar domain.Bar) domain.OrderType {
	s.closes = append(s.closes, bar.Close)
	if len(s.closes) > s.longPeriod {
		s.closes = s.closes[len(s.closes)-s.longPeriod:]
	}
	if len(s.closes) < s.longPeriod {
		return domain.Hold
	}

	diff := sma(s.closes, s.shortPeriod) - sma(s.closes, s.longPeriod)

	// First full window establishes the baseline without signalling.
	if !s.primed {
		s.primed = true
		s.prevDiff = diff
		return domain.Hold
	}

	defer func() { s.prevDiff = diff }()

	if s.prevDiff <= 0 && diff > 0 {
		return domain.Buy
	}
	if s.prevDiff >= 0 && diff < 0 {
		return domain.Sell
	}
	return domain.Hold
}

// sma averages the last n values.
func sma(values []float64, n int) float64 {
	sum := 0.0
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n)
}
