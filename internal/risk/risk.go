// Package risk provides pre-trade validation of proposed orders against
// configured limits and the current account ledger.
package risk

import (
	"fmt"
	"log/slog"

	"tradebot/internal/config"
	"tradebot/internal/domain"
)

// LedgerView is the read side of a broker: everything a risk manager needs
// to know about current account state.
type LedgerView interface {
	GetPositions() []domain.Position
	GetBalance() float64
}

// Result is the outcome of validating one order. A rejection is a normal
// outcome, not an error; Reason is always set when OK is false.
type Result struct {
	OK     bool
	Reason string
}

func accept() Result {
	return Result{OK: true}
}

func reject(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Manager validates proposed orders. ValidateOrder is a pure function of the
// trade, the configured limits, and one consistent ledger snapshot; it
// mutates nothing and may be called repeatedly with identical results.
type Manager interface {
	// Name returns the manager identifier (e.g. "basic", "advanced").
	Name() string

	// ValidateOrder reports whether the proposed trade passes all risk
	// checks, with a human-readable reason on rejection.
	ValidateOrder(trade domain.Trade) Result
}

// New constructs the risk manager selected by kind ("basic" or "advanced").
// Unknown kinds fail here, before the trading loop starts.
func New(kind string, cfg config.RiskConfig, view LedgerView) (Manager, error) {
	switch kind {
	case "basic":
		return NewBasic(cfg), nil
	case "advanced":
		return NewAdvanced(cfg, view), nil
	}
	return nil, fmt.Errorf("unknown risk manager %q", kind)
}

// ---------------------------------------------------------------------------
// Basic
// ---------------------------------------------------------------------------

// Compile-time interface checks.
var _ Manager = (*Basic)(nil)
var _ Manager = (*Advanced)(nil)

// Basic enforces only the per-order position size limit.
type Basic struct {
	cfg config.RiskConfig
	log *slog.Logger
}

// NewBasic creates a Basic risk manager with the given limits.
func NewBasic(cfg config.RiskConfig) *Basic {
	return &Basic{
		cfg: cfg,
		log: slog.Default().With("risk", "basic"),
	}
}

// Name returns "basic".
func (m *Basic) Name() string { return "basic" }

// ValidateOrder rejects trades whose quantity exceeds the maximum position
// size.
func (m *Basic) ValidateOrder(trade domain.Trade) Result {
	if trade.Quantity > m.cfg.MaxPositionSize {
		m.log.Warn("order rejected",
			"symbol", trade.Symbol,
			"quantity", trade.Quantity,
			"max", m.cfg.MaxPositionSize,
		)
		return reject("quantity %v exceeds max position size %v", trade.Quantity, m.cfg.MaxPositionSize)
	}
	return accept()
}

// ---------------------------------------------------------------------------
// Advanced
// ---------------------------------------------------------------------------

// Advanced enforces the full rule set: position size, open position count,
// total exposure, leverage, and stop-loss. Checks run in order and the first
// failure short-circuits.
type Advanced struct {
	cfg  config.RiskConfig
	view LedgerView
	log  *slog.Logger
}

// NewAdvanced creates an Advanced risk manager reading account state from
// the given ledger view.
func NewAdvanced(cfg config.RiskConfig, view LedgerView) *Advanced {
	return &Advanced{
		cfg:  cfg,
		view: view,
		log:  slog.Default().With("risk", "advanced"),
	}
}

// Name returns "advanced".
func (m *Advanced) Name() string { return "advanced" }

// ValidateOrder runs the ordered rule set against one consistent snapshot of
// the ledger. The same snapshot serves both the exposure and leverage
// checks.
func (m *Advanced) ValidateOrder(trade domain.Trade) Result {
	positions := m.view.GetPositions()
	balance := m.view.GetBalance()

	// 1. Individual position size.
	if trade.Quantity > m.cfg.MaxPositionSize {
		return m.rejected(trade, reject("quantity %v exceeds max position size %v",
			trade.Quantity, m.cfg.MaxPositionSize))
	}

	// 2. Open position count. Adding to an already-open symbol is allowed
	// even at the limit.
	open := 0
	symbolOpen := false
	for _, p := range positions {
		if p.Quantity > 0 {
			open++
			if p.Symbol == trade.Symbol {
				symbolOpen = true
			}
		}
	}
	if open >= m.cfg.MaxOpenPositions && !symbolOpen {
		return m.rejected(trade, reject("open positions %d at limit %d and %s is not already open",
			open, m.cfg.MaxOpenPositions, trade.Symbol))
	}

	// 3. Total exposure including the candidate trade.
	exposure := totalExposure(positions, trade)
	if exposure > m.cfg.MaxTotalExposure {
		return m.rejected(trade, reject("total exposure %v exceeds max %v",
			exposure, m.cfg.MaxTotalExposure))
	}

	// 4. Leverage.
	if exposure > balance*m.cfg.Leverage {
		return m.rejected(trade, reject("total exposure %v exceeds %vx leverage of balance %v",
			exposure, m.cfg.Leverage, balance))
	}

	// 5. Stop-loss, buy family only. The comparison is preserved as
	// originally written: price < price*(1-stopLossPercent) can never hold
	// for a non-negative stop-loss, so this check never rejects. The
	// intended comparison (market price against entry price) was never part
	// of the rule.
	if trade.OrderType.IsBuy() {
		potential := trade.Price * (1 - m.cfg.StopLossPercent)
		if trade.Price < potential {
			return m.rejected(trade, reject("price %v below stop-loss threshold %v",
				trade.Price, potential))
		}
	}

	return accept()
}

func (m *Advanced) rejected(trade domain.Trade, r Result) Result {
	m.log.Warn("order rejected",
		"symbol", trade.Symbol,
		"type", string(trade.OrderType),
		"quantity", trade.Quantity,
		"reason", r.Reason,
	)
	return r
}

// totalExposure sums the notional value of all positions at cost basis,
// adjusted by the candidate trade: buys add their notional, sells subtract.
func totalExposure(positions []domain.Position, trade domain.Trade) float64 {
	exposure := 0.0
	for _, p := range positions {
		exposure += p.Exposure()
	}

	switch {
	case trade.OrderType.IsBuy():
		exposure += trade.Notional()
	case trade.OrderType.IsSell():
		exposure -= trade.Notional()
	}
	return exposure
}
