package live

import (
	"encoding/json"
	"time"

	"tradebot/internal/domain"
	"tradebot/internal/plugin"
)

// HubPlugin forwards pipeline events to a Hub as JSON messages, letting
// websocket subscribers watch bars, signals, and trades in real time.
type HubPlugin struct {
	plugin.Base
	hub *Hub
}

var _ plugin.Plugin = (*HubPlugin)(nil)

// NewHubPlugin wraps the given Hub as a pipeline plugin.
func NewHubPlugin(hub *Hub) *HubPlugin {
	return &HubPlugin{hub: hub}
}

func (h *HubPlugin) Name() string { return "live" }

func (h *HubPlugin) OnDataFetched(bar domain.Bar) {
	h.send(map[string]any{
		"event":     "bar",
		"symbol":    bar.Symbol,
		"open":      bar.Open,
		"high":      bar.High,
		"low":       bar.Low,
		"close":     bar.Close,
		"volume":    bar.Volume,
		"timestamp": bar.Timestamp.UTC().Format(time.RFC3339),
	})
}

func (h *HubPlugin) OnSignalGenerated(orderType domain.OrderType, bar domain.Bar) {
	h.send(map[string]any{
		"event":  "signal",
		"symbol": bar.Symbol,
		"signal": string(orderType),
		"price":  bar.Close,
	})
}

func (h *HubPlugin) OnOrderValidated(trade domain.Trade, ok bool, reason string) {
	h.send(map[string]any{
		"event":    "validation",
		"symbol":   trade.Symbol,
		"type":     string(trade.OrderType),
		"quantity": trade.Quantity,
		"approved": ok,
		"reason":   reason,
	})
}

func (h *HubPlugin) OnTradeExecuted(trade domain.Trade) {
	h.send(map[string]any{
		"event":     "trade",
		"symbol":    trade.Symbol,
		"type":      string(trade.OrderType),
		"quantity":  trade.Quantity,
		"price":     trade.Price,
		"timestamp": trade.Timestamp.UTC().Format(time.RFC3339),
	})
}

func (h *HubPlugin) send(msg map[string]any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.hub.Broadcast(data)
}
