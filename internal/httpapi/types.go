// Package httpapi exposes the bot's ledger and market data state as a JSON
// REST API for dashboards and tooling.
package httpapi

import (
	"time"

	"tradebot/internal/domain"
)

// StatusJSON reports the running bot's identity and uptime.
type StatusJSON struct {
	Status        string  `json:"status"`
	Broker        string  `json:"broker"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// AccountJSON summarises the ledger: cash plus open positions at cost.
type AccountJSON struct {
	Cash          float64 `json:"cash"`
	Equity        float64 `json:"equity"`
	OpenPositions int     `json:"openPositions"`
}

// PositionJSON is the JSON representation of one position.
type PositionJSON struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	AvgPrice float64 `json:"avgPrice"`
	Exposure float64 `json:"exposure"`
}

// TradeJSON is the JSON representation of one executed trade.
type TradeJSON struct {
	Symbol    string  `json:"symbol"`
	OrderType string  `json:"orderType"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

// BarJSON is the JSON representation of one market data bar.
type BarJSON struct {
	Symbol    string  `json:"symbol"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
	Timestamp string  `json:"timestamp"`
}

func positionJSON(p domain.Position) PositionJSON {
	return PositionJSON{
		Symbol:   p.Symbol,
		Quantity: p.Quantity,
		AvgPrice: p.AvgPrice,
		Exposure: p.Exposure(),
	}
}

func tradeJSON(t domain.Trade) TradeJSON {
	return TradeJSON{
		Symbol:    t.Symbol,
		OrderType: string(t.OrderType),
		Quantity:  t.Quantity,
		Price:     t.Price,
		Timestamp: t.Timestamp.UTC().Format(time.RFC3339),
	}
}

func barJSON(b domain.Bar) BarJSON {
	return BarJSON{
		Symbol:    b.Symbol,
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    b.Volume,
		Timestamp: b.Timestamp.UTC().Format(time.RFC3339),
	}
}
