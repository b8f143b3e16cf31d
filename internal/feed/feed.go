// Package feed provides the market data read path for the trading loop: a
// forward-only backtest cursor and a live cascade that falls back from an
// in-memory cache through the durable store to a network fetch, with a
// last-known-good value as the final resort.
package feed

import (
	"context"
	"errors"

	"tradebot/internal/domain"
)

// ErrNoData signals that every layer of the read path came up empty. The
// orchestrator skips the tick when it sees this.
var ErrNoData = errors.New("feed: no data available")

// Feed supplies the latest market data point for a symbol.
type Feed interface {
	// Latest returns the most recent bar for the symbol, or ErrNoData.
	Latest(ctx context.Context, symbol string) (*domain.Bar, error)
}

// Fetcher is the external live-data source at the bottom of the cascade.
type Fetcher interface {
	// FetchLatest retrieves the current bar for the symbol from the
	// upstream provider.
	FetchLatest(ctx context.Context, symbol string) (*domain.Bar, error)
}
