// Package report computes performance statistics from an executed trade
// history, used by the backtest runner and API consumers.
package report

import (
	"sort"

	"tradebot/internal/domain"
)

// SymbolStats holds aggregated trade statistics for a single symbol. PnL is
// realized only: open inventory is carried at average cost and contributes
// nothing until it is sold.
type SymbolStats struct {
	Symbol      string
	Trades      int
	Bought      float64 // total quantity bought
	Sold        float64 // total quantity sold
	Turnover    float64 // sum(quantity * price) over all trades
	RealizedPnL float64
	OpenQty     float64
	AvgCost     float64 // average cost of remaining inventory
}

// Performance summarises a whole trade history.
type Performance struct {
	Trades      int
	RealizedPnL float64
	Turnover    float64
	Wins        int // closing trades sold above average cost
	Losses      int
	Symbols     []*SymbolStats // sorted by symbol
}

// Analyze computes per-symbol and aggregate statistics from trades. Trades
// are processed in the order given, which must match execution order; the
// sell-side PnL uses the same average-cost basis the ledger maintains.
func Analyze(trades []domain.Trade) *Performance {
	bySymbol := make(map[string]*SymbolStats)

	perf := &Performance{}
	for _, t := range trades {
		s := bySymbol[t.Symbol]
		if s == nil {
			s = &SymbolStats{Symbol: t.Symbol}
			bySymbol[t.Symbol] = s
		}

		s.Trades++
		s.Turnover += t.Notional()
		perf.Trades++
		perf.Turnover += t.Notional()

		switch {
		case t.OrderType.IsBuy():
			newQty := s.OpenQty + t.Quantity
			if s.OpenQty == 0 {
				s.AvgCost = t.Price
			} else {
				s.AvgCost = (s.OpenQty*s.AvgCost + t.Quantity*t.Price) / newQty
			}
			s.OpenQty = newQty
			s.Bought += t.Quantity
		case t.OrderType.IsSell():
			pnl := (t.Price - s.AvgCost) * t.Quantity
			s.RealizedPnL += pnl
			perf.RealizedPnL += pnl
			if pnl >= 0 {
				perf.Wins++
			} else {
				perf.Losses++
			}
			s.OpenQty -= t.Quantity
			if s.OpenQty <= 0 {
				s.OpenQty = 0
				s.AvgCost = 0
			}
			s.Sold += t.Quantity
		}
	}

	perf.Symbols = make([]*SymbolStats, 0, len(bySymbol))
	for _, s := range bySymbol {
		perf.Symbols = append(perf.Symbols, s)
	}
	sort.Slice(perf.Symbols, func(i, j int) bool {
		return perf.Symbols[i].Symbol < perf.Symbols[j].Symbol
	})
	return perf
}

// WinRate returns the fraction of closing trades sold at or above cost, or 0
// when nothing was closed.
func (p *Performance) WinRate() float64 {
	closed := p.Wins + p.Losses
	if closed == 0 {
		return 0
	}
	return float64(p.Wins) / float64(closed)
}
