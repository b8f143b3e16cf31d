package plugin

import (
	"log/slog"

	"tradebot/internal/domain"
)

// LoggerPlugin writes every pipeline event to structured logs.
type LoggerPlugin struct {
	log *slog.Logger
}

var _ Plugin = (*LoggerPlugin)(nil)

// NewLoggerPlugin creates a LoggerPlugin writing to the given logger, or
// slog.Default() when nil.
func NewLoggerPlugin(log *slog.Logger) *LoggerPlugin {
	if log == nil {
		log = slog.Default()
	}
	return &LoggerPlugin{log: log.With("plugin", "logger")}
}

func (l *LoggerPlugin) Name() string { return "logger" }

func (l *LoggerPlugin) OnAppStart() {
	l.log.Info("pipeline started")
}

func (l *LoggerPlugin) OnAppStop() {
	l.log.Info("pipeline stopped")
}

func (l *LoggerPlugin) OnDataFetched(bar domain.Bar) {
	l.log.Debug("data fetched",
		"symbol", bar.Symbol, "close", bar.Close, "timestamp", bar.Timestamp)
}

func (l *LoggerPlugin) OnSignalGenerated(orderType domain.OrderType, bar domain.Bar) {
	l.log.Info("signal generated",
		"symbol", bar.Symbol, "signal", string(orderType), "price", bar.Close)
}

func (l *LoggerPlugin) OnOrderValidated(trade domain.Trade, ok bool, reason string) {
	if ok {
		l.log.Info("order approved",
			"symbol", trade.Symbol, "type", string(trade.OrderType), "quantity", trade.Quantity)
		return
	}
	l.log.Warn("order rejected",
		"symbol", trade.Symbol, "type", string(trade.OrderType), "reason", reason)
}

func (l *LoggerPlugin) OnOrderFailed(trade domain.Trade, reason string) {
	l.log.Warn("order failed",
		"symbol", trade.Symbol, "type", string(trade.OrderType), "reason", reason)
}

func (l *LoggerPlugin) OnTradeExecuted(trade domain.Trade) {
	l.log.Info("trade executed",
		"symbol", trade.Symbol, "type", string(trade.OrderType),
		"quantity", trade.Quantity, "price", trade.Price)
}
