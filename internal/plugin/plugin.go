// Package plugin defines the observer interface for pipeline lifecycle
// events and an asynchronous dispatcher that keeps slow observers from
// blocking the trading loop.
package plugin

import (
	"log/slog"
	"sync"

	"tradebot/internal/domain"
)

// Plugin receives lifecycle callbacks from the pipeline. Implementations
// should embed Base and override only the hooks they need.
type Plugin interface {
	// Name returns the plugin identifier.
	Name() string

	// OnAppStart is called once before the trading loop begins.
	OnAppStart()

	// OnAppStop is called once after the trading loop has stopped.
	OnAppStop()

	// OnDataFetched is called after market data is fetched, before the
	// strategy runs.
	OnDataFetched(bar domain.Bar)

	// OnSignalGenerated is called after a strategy produces a signal,
	// including HOLD.
	OnSignalGenerated(orderType domain.OrderType, bar domain.Bar)

	// OnOrderValidated is called after the risk manager validates (or
	// rejects) an order.
	OnOrderValidated(trade domain.Trade, ok bool, reason string)

	// OnTradeExecuted is called after a trade executes successfully.
	OnTradeExecuted(trade domain.Trade)

	// OnOrderFailed is called when an order passed validation but the
	// broker could not execute it.
	OnOrderFailed(trade domain.Trade, reason string)
}

// Base is a no-op Plugin implementation for embedding.
type Base struct{}

func (Base) OnAppStart()                                    {}
func (Base) OnAppStop()                                     {}
func (Base) OnDataFetched(domain.Bar)                       {}
func (Base) OnSignalGenerated(domain.OrderType, domain.Bar) {}
func (Base) OnOrderValidated(domain.Trade, bool, string)    {}
func (Base) OnTradeExecuted(domain.Trade)                   {}
func (Base) OnOrderFailed(domain.Trade, string)             {}

// ---------------------------------------------------------------------------
// Dispatcher
// ---------------------------------------------------------------------------

// Dispatcher fans events out to registered plugins from a dedicated
// goroutine. Publishing never blocks the caller: when the event buffer is
// full the event is dropped and counted, which bounds the time the trading
// loop can spend on observers.
type Dispatcher struct {
	plugins []Plugin
	events  chan func()
	dropped int64
	mu      sync.Mutex
	done    chan struct{}
	closed  bool
	log     *slog.Logger
}

// NewDispatcher creates a Dispatcher with the given event buffer size and
// starts its worker goroutine.
func NewDispatcher(plugins []Plugin, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &Dispatcher{
		plugins: plugins,
		events:  make(chan func(), buffer),
		done:    make(chan struct{}),
		log:     slog.Default().With("component", "dispatcher"),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for fn := range d.events {
		fn()
	}
}

// publish enqueues one fan-out call without blocking.
func (d *Dispatcher) publish(fn func(p Plugin)) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	select {
	case d.events <- func() {
		for _, p := range d.plugins {
			fn(p)
		}
	}:
	default:
		d.dropped++
		d.log.Warn("event buffer full, dropping event", "dropped", d.dropped)
	}
	d.mu.Unlock()
}

// AppStart notifies all plugins that the pipeline is starting. Unlike the
// event hooks it runs synchronously: startup notifications should not race
// with the first tick.
func (d *Dispatcher) AppStart() {
	for _, p := range d.plugins {
		p.OnAppStart()
	}
}

// DataFetched publishes an OnDataFetched event.
func (d *Dispatcher) DataFetched(bar domain.Bar) {
	d.publish(func(p Plugin) { p.OnDataFetched(bar) })
}

// SignalGenerated publishes an OnSignalGenerated event.
func (d *Dispatcher) SignalGenerated(orderType domain.OrderType, bar domain.Bar) {
	d.publish(func(p Plugin) { p.OnSignalGenerated(orderType, bar) })
}

// OrderValidated publishes an OnOrderValidated event.
func (d *Dispatcher) OrderValidated(trade domain.Trade, ok bool, reason string) {
	d.publish(func(p Plugin) { p.OnOrderValidated(trade, ok, reason) })
}

// TradeExecuted publishes an OnTradeExecuted event.
func (d *Dispatcher) TradeExecuted(trade domain.Trade) {
	d.publish(func(p Plugin) { p.OnTradeExecuted(trade) })
}

// OrderFailed publishes an OnOrderFailed event.
func (d *Dispatcher) OrderFailed(trade domain.Trade, reason string) {
	d.publish(func(p Plugin) { p.OnOrderFailed(trade, reason) })
}

// Close drains pending events, delivers OnAppStop synchronously, and stops
// the worker. The Dispatcher must not be used afterwards.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.events)
	d.mu.Unlock()

	<-d.done
	for _, p := range d.plugins {
		p.OnAppStop()
	}
}

// Dropped reports how many events were discarded because the buffer was
// full.
func (d *Dispatcher) Dropped() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}
