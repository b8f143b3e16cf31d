package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"tradebot/internal/domain"
	"tradebot/internal/store"
	"tradebot/internal/util"
)

// Compile-time interface check.
var _ Gatherer = (*BarBackfiller)(nil)

// cachePrimer receives backfilled bars so the live cascade's fast cache
// starts warm. Satisfied by feed.CascadeFeed.
type cachePrimer interface {
	Prime(bars []domain.Bar)
}

// BarBackfiller fetches historical daily bars for a set of symbols from the
// Alpaca market-data API and writes them to every configured bar store
// (Parquet archive and SQLite durable layer).
type BarBackfiller struct {
	client    *marketdata.Client
	stores    []store.BarStore
	primer    cachePrimer
	symbols   []string
	dateRange DateRange
	limiter   *util.RateLimiter
	log       *slog.Logger
}

// NewBarBackfiller creates a BarBackfiller. stores receives the fetched
// bars; primer may be nil when no live cascade is running.
func NewBarBackfiller(apiKey, apiSecret, dataURL string, stores []store.BarStore, primer cachePrimer, symbols []string, r DateRange, rateLimitPerMin int) *BarBackfiller {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &BarBackfiller{
		client:    marketdata.NewClient(opts),
		stores:    stores,
		primer:    primer,
		symbols:   symbols,
		dateRange: r,
		limiter:   util.NewRateLimiter(rateLimitPerMin),
		log:       slog.Default().With("gatherer", "backfill"),
	}
}

// Name returns the gatherer identifier.
func (g *BarBackfiller) Name() string { return "backfill" }

// Run fetches daily bars for all configured symbols and persists them. Each
// symbol is fetched under the rate limit with retries; a symbol that still
// fails is logged and skipped so the rest of the backfill proceeds.
func (g *BarBackfiller) Run(ctx context.Context) error {
	if len(g.symbols) == 0 {
		return fmt.Errorf("backfill: no symbols configured")
	}

	start := time.Now()
	var failed []string

	for _, symbol := range g.symbols {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		bars, err := g.fetchBars(ctx, symbol)
		if err != nil {
			g.log.Error("symbol backfill failed", "symbol", symbol, "err", err)
			failed = append(failed, symbol)
			continue
		}
		if len(bars) == 0 {
			g.log.Warn("no bars in range", "symbol", symbol)
			continue
		}

		for _, s := range g.stores {
			if err := s.WriteBars(ctx, bars); err != nil {
				return fmt.Errorf("writing %d bars for %s: %w", len(bars), symbol, err)
			}
		}
		if g.primer != nil {
			// Warm the cascade with the newest bar only.
			g.primer.Prime(bars[len(bars)-1:])
		}

		g.log.Info("symbol backfilled", "symbol", symbol, "bars", len(bars))
	}

	g.log.Info("backfill done",
		"symbols", len(g.symbols),
		"failed", len(failed),
		"elapsed", time.Since(start).Round(time.Second),
	)
	if len(failed) > 0 {
		return fmt.Errorf("backfill: %d symbols failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

// fetchBars pulls daily bars for one symbol with bounded retries.
func (g *BarBackfiller) fetchBars(ctx context.Context, symbol string) ([]domain.Bar, error) {
	var alpacaBars []marketdata.Bar

	err := util.Retry(ctx, 3, time.Second, func() error {
		var err error
		alpacaBars, err = g.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     g.dateRange.Start,
			End:       g.dateRange.End,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars: %w", err)
	}

	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, domain.Bar{
			Symbol:    strings.ToUpper(symbol),
			Timestamp: ab.Timestamp,
			Open:      ab.Open,
			High:      ab.High,
			Low:       ab.Low,
			Close:     ab.Close,
			Volume:    int64(ab.Volume),
		})
	}
	return bars, nil
}
