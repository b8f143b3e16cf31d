package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradebot/internal/domain"
	"tradebot/internal/store"
)

// Compile-time interface check.
var _ Feed = (*BacktestFeed)(nil)

// BacktestFeed replays a preloaded, time-ordered sequence of bars. Each call
// to Latest advances a cursor by one; once the sequence is exhausted the
// feed keeps returning ErrNoData. The cursor never restarts.
type BacktestFeed struct {
	mu     sync.Mutex
	bars   []domain.Bar
	cursor int
}

// NewBacktestFeed creates a BacktestFeed over the given bars, which must be
// in time order.
func NewBacktestFeed(bars []domain.Bar) *BacktestFeed {
	return &BacktestFeed{bars: bars}
}

// NewBacktestFeedFromStore loads the replay sequence for a symbol from a bar
// store.
func NewBacktestFeedFromStore(ctx context.Context, s store.BarStore, symbol string, start, end time.Time) (*BacktestFeed, error) {
	bars, err := s.ReadBars(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading backtest bars for %s: %w", symbol, err)
	}
	return NewBacktestFeed(bars), nil
}

// Latest returns the next bar in the sequence, or ErrNoData when exhausted.
// The symbol argument is ignored; the sequence was chosen at construction.
func (f *BacktestFeed) Latest(_ context.Context, _ string) (*domain.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cursor >= len(f.bars) {
		return nil, ErrNoData
	}
	bar := f.bars[f.cursor]
	f.cursor++
	return &bar, nil
}

// Remaining reports how many bars are left in the sequence.
func (f *BacktestFeed) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bars) - f.cursor
}
