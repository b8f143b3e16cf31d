package feed

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"tradebot/internal/domain"
)

// Compile-time interface check.
var _ Fetcher = (*AlpacaFetcher)(nil)

// AlpacaFetcher retrieves the latest bar for a symbol from the Alpaca
// market-data API.
type AlpacaFetcher struct {
	client *marketdata.Client
}

// NewAlpacaFetcher creates an AlpacaFetcher with the given credentials and
// optional data endpoint override.
func NewAlpacaFetcher(apiKey, apiSecret, dataURL string) *AlpacaFetcher {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaFetcher{client: marketdata.NewClient(opts)}
}

// FetchLatest returns the latest bar for the symbol. The SDK call itself
// cannot be cancelled, so it runs in a goroutine and the wait is bounded by
// ctx; an abandoned call finishes in the background and its result is
// discarded.
func (f *AlpacaFetcher) FetchLatest(ctx context.Context, symbol string) (*domain.Bar, error) {
	type result struct {
		bar *marketdata.Bar
		err error
	}
	ch := make(chan result, 1)

	go func() {
		bar, err := f.client.GetLatestBar(symbol, marketdata.GetLatestBarRequest{})
		ch <- result{bar: bar, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("GetLatestBar %s: %w", symbol, res.err)
		}
		if res.bar == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
		}
		return &domain.Bar{
			Symbol:    symbol,
			Timestamp: res.bar.Timestamp,
			Open:      res.bar.Open,
			High:      res.bar.High,
			Low:       res.bar.Low,
			Close:     res.bar.Close,
			Volume:    int64(res.bar.Volume),
		}, nil
	}
}
