// Package store defines storage interfaces for persisting and retrieving
// market data bars and executed trades, with SQLite and Parquet backends.
package store

import (
	"context"
	"errors"
	"time"

	"tradebot/internal/domain"
)

// ErrNotFound is returned by lookups that match no stored record.
var ErrNotFound = errors.New("store: not found")

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars to storage.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end],
	// ordered by timestamp.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// LatestBar returns the most recent bar stored for the symbol, or
	// ErrNotFound when the symbol has no data.
	LatestBar(ctx context.Context, symbol string) (*domain.Bar, error)

	// ListSymbols returns all distinct symbols with stored bars.
	ListSymbols(ctx context.Context) ([]string, error)
}

// TradeLog persists the append-only history of executed trades.
type TradeLog interface {
	// AppendTrade records one executed trade.
	AppendTrade(ctx context.Context, trade domain.Trade) error

	// ListTrades returns the most recent trades, newest first, up to limit.
	// A limit <= 0 returns all trades.
	ListTrades(ctx context.Context, limit int) ([]domain.Trade, error)
}
