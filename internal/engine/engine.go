// Package engine drives the trading loop: fetch market data, run the
// strategy, validate the proposed order against risk rules, execute it
// through the broker, and fan the results out to observers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tradebot/internal/broker"
	"tradebot/internal/domain"
	"tradebot/internal/feed"
	"tradebot/internal/plugin"
	"tradebot/internal/risk"
	"tradebot/internal/store"
	"tradebot/internal/strategy"
)

// Params wires an Engine. Feed, Strategy, Risk, Broker, and Dispatcher are
// required; TradeLog is optional.
type Params struct {
	Feed       feed.Feed
	Strategy   strategy.Strategy
	Risk       risk.Manager
	Broker     broker.Broker
	Dispatcher *plugin.Dispatcher

	// TradeLog, when set, receives every executed trade.
	TradeLog store.TradeLog

	Symbol       string
	Quantity     float64
	TickInterval time.Duration
	Logger       *slog.Logger
}

// Engine owns the orchestration loop. It holds no market or ledger state of
// its own; all state lives in the feed, the strategy, and the broker.
type Engine struct {
	feed       feed.Feed
	strategy   strategy.Strategy
	risk       risk.Manager
	broker     broker.Broker
	dispatcher *plugin.Dispatcher
	tradeLog   store.TradeLog

	symbol       string
	quantity     float64
	tickInterval time.Duration
	log          *slog.Logger
}

// New validates the wiring and returns a ready Engine. Construction fails
// fast on missing components so a bad setup never reaches the loop.
func New(p Params) (*Engine, error) {
	switch {
	case p.Feed == nil:
		return nil, errors.New("engine: feed is required")
	case p.Strategy == nil:
		return nil, errors.New("engine: strategy is required")
	case p.Risk == nil:
		return nil, errors.New("engine: risk manager is required")
	case p.Broker == nil:
		return nil, errors.New("engine: broker is required")
	case p.Dispatcher == nil:
		return nil, errors.New("engine: dispatcher is required")
	case p.Symbol == "":
		return nil, errors.New("engine: symbol is required")
	case p.Quantity <= 0:
		return nil, fmt.Errorf("engine: quantity %v must be positive", p.Quantity)
	}
	if p.TickInterval <= 0 {
		p.TickInterval = 5 * time.Second
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return &Engine{
		feed:         p.Feed,
		strategy:     p.Strategy,
		risk:         p.Risk,
		broker:       p.Broker,
		dispatcher:   p.Dispatcher,
		tradeLog:     p.TradeLog,
		symbol:       p.Symbol,
		quantity:     p.Quantity,
		tickInterval: p.TickInterval,
		log:          p.Logger.With("component", "engine"),
	}, nil
}

// Run executes the trading loop until ctx is cancelled. The stop signal is
// checked between ticks; an in-flight tick finishes before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	e.dispatcher.AppStart()
	e.log.Info("trading loop started",
		"symbol", e.symbol, "strategy", e.strategy.Name(),
		"broker", e.broker.Name(), "risk", e.risk.Name(),
		"interval", e.tickInterval)

	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		if err := e.Step(ctx); err != nil && ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			e.log.Info("trading loop stopping")
			return nil
		case <-ticker.C:
		}
	}
	e.log.Info("trading loop stopping")
	return nil
}

// Step runs a single tick of the pipeline. Every per-tick failure mode is
// non-fatal: the error is logged, observers are notified where relevant, and
// the tick's error is returned so callers driving Step directly (backtests)
// can react. A panic inside a tick is recovered and logged, except a ledger
// invariant violation, which is rethrown so the process dies rather than
// continue on corrupted state.
func (e *Engine) Step(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if perr, ok := r.(error); ok && errors.Is(perr, broker.ErrLedgerCorrupt) {
				panic(r)
			}
			e.log.Error("tick panicked", "panic", r)
			err = fmt.Errorf("tick panicked: %v", r)
		}
	}()

	// FETCH
	bar, err := e.feed.Latest(ctx, e.symbol)
	if err != nil {
		if errors.Is(err, feed.ErrNoData) {
			e.log.Warn("no market data, skipping tick", "symbol", e.symbol)
		} else {
			e.log.Error("market data fetch failed", "symbol", e.symbol, "error", err)
		}
		return err
	}
	e.dispatcher.DataFetched(*bar)

	// DECIDE
	signal := e.strategy.GenerateSignal(*bar)
	e.dispatcher.SignalGenerated(signal, *bar)
	if signal == domain.Hold {
		return nil
	}

	proposed := domain.Trade{
		Symbol:    e.symbol,
		OrderType: signal,
		Quantity:  e.quantity,
		Price:     bar.Close,
		Timestamp: bar.Timestamp,
	}

	// VALIDATE
	result := e.risk.ValidateOrder(proposed)
	e.dispatcher.OrderValidated(proposed, result.OK, result.Reason)
	if !result.OK {
		e.log.Info("order rejected by risk manager",
			"symbol", e.symbol, "signal", string(signal), "reason", result.Reason)
		return nil
	}

	// EXECUTE: failures skip the tick without retry; the ledger is unchanged.
	executed, err := e.broker.PlaceOrder(ctx, proposed.Symbol, proposed.OrderType, proposed.Quantity, proposed.Price)
	if err != nil {
		switch {
		case errors.Is(err, broker.ErrUnavailable):
			e.log.Warn("broker unavailable, skipping tick", "error", err)
		case errors.Is(err, broker.ErrInsufficientPosition):
			e.log.Warn("insufficient position for order",
				"symbol", e.symbol, "signal", string(signal))
		default:
			e.log.Error("order execution failed", "symbol", e.symbol, "error", err)
		}
		e.dispatcher.OrderFailed(proposed, err.Error())
		return err
	}

	// NOTIFY
	e.dispatcher.TradeExecuted(*executed)
	if e.tradeLog != nil {
		if err := e.tradeLog.AppendTrade(ctx, *executed); err != nil {
			e.log.Error("recording trade failed", "error", err)
		}
	}
	e.log.Info("trade executed",
		"symbol", executed.Symbol, "type", string(executed.OrderType),
		"quantity", executed.Quantity, "price", executed.Price)
	return nil
}
