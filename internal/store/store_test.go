package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tradebot/internal/domain"
)

func TestParquetStoreWriteReadBars(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	bars := []domain.Bar{
		{
			Symbol:    "AAPL",
			Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Open:      185.0, High: 186.5, Low: 184.0, Close: 185.5,
			Volume: 50000000,
		},
		{
			Symbol:    "AAPL",
			Timestamp: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			Open:      185.5, High: 187.0, Low: 185.0, Close: 186.0,
			Volume: 45000000,
		},
	}

	if err := ps.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	got, err := ps.ReadBars(ctx, "AAPL", start, end)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadBars returned %d bars, want 2", len(got))
	}
	if got[0].Close != 185.5 {
		t.Errorf("first bar Close = %v, want 185.5", got[0].Close)
	}
	if got[1].Close != 186.0 {
		t.Errorf("second bar Close = %v, want 186.0", got[1].Close)
	}
}

func TestParquetStoreMergeBars(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	bars1 := []domain.Bar{
		{
			Symbol:    "MSFT",
			Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Open:      400.0, High: 405.0, Low: 399.0, Close: 403.0,
			Volume: 30000000,
		},
	}
	if err := ps.WriteBars(ctx, bars1); err != nil {
		t.Fatalf("WriteBars (first): %v", err)
	}

	// Second write for same symbol+year should merge, not overwrite.
	bars2 := []domain.Bar{
		{
			Symbol:    "MSFT",
			Timestamp: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			Open:      403.0, High: 410.0, Low: 402.0, Close: 408.0,
			Volume: 35000000,
		},
	}
	if err := ps.WriteBars(ctx, bars2); err != nil {
		t.Fatalf("WriteBars (second): %v", err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	got, err := ps.ReadBars(ctx, "MSFT", start, end)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadBars returned %d bars after merge, want 2", len(got))
	}
}

func TestParquetStoreLatestBar(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	// Bars spanning two year files.
	bars := []domain.Bar{
		{Symbol: "AAPL", Timestamp: time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), Close: 192.0},
		{Symbol: "AAPL", Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 185.5},
		{Symbol: "AAPL", Timestamp: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: 186.0},
	}
	if err := ps.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	got, err := ps.LatestBar(ctx, "AAPL")
	if err != nil {
		t.Fatalf("LatestBar: %v", err)
	}
	if got.Close != 186.0 {
		t.Errorf("LatestBar Close = %v, want 186.0", got.Close)
	}

	if _, err := ps.LatestBar(ctx, "NVDA"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestBar for unknown symbol: err = %v, want ErrNotFound", err)
	}
}

func TestParquetStoreListSymbols(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	bars := []domain.Bar{
		{Symbol: "AAPL", Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 185.5, Volume: 50000000},
		{Symbol: "GOOGL", Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 140.5, Volume: 20000000},
	}
	if err := ps.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	symbols, err := ps.ListSymbols(ctx)
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("ListSymbols returned %d symbols, want 2", len(symbols))
	}
	if symbols[0] != "AAPL" || symbols[1] != "GOOGL" {
		t.Errorf("ListSymbols = %v, want [AAPL GOOGL]", symbols)
	}
}

func TestSQLiteStoreBars(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore(%q) returned error: %v", dbPath, err)
	}
	defer s.Close()
	ctx := context.Background()

	bars := []domain.Bar{
		{Symbol: "AAPL", Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 185, High: 186, Low: 184, Close: 185.5, Volume: 1000},
		{Symbol: "AAPL", Timestamp: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 185.5, High: 187, Low: 185, Close: 186.0, Volume: 1100},
		{Symbol: "TSLA", Timestamp: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 240, High: 245, Low: 238, Close: 242.0, Volume: 900},
	}
	if err := s.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	latest, err := s.LatestBar(ctx, "AAPL")
	if err != nil {
		t.Fatalf("LatestBar: %v", err)
	}
	if latest.Close != 186.0 {
		t.Errorf("LatestBar Close = %v, want 186.0", latest.Close)
	}
	if !latest.Timestamp.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("LatestBar Timestamp = %v, want 2024-01-03", latest.Timestamp)
	}

	if _, err := s.LatestBar(ctx, "NVDA"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestBar for unknown symbol: err = %v, want ErrNotFound", err)
	}

	got, err := s.ReadBars(ctx, "AAPL",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadBars returned %d bars, want 2", len(got))
	}

	symbols, err := s.ListSymbols(ctx)
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "TSLA" {
		t.Errorf("ListSymbols = %v, want [AAPL TSLA]", symbols)
	}
}

func TestSQLiteStoreWriteBarsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	bar := domain.Bar{Symbol: "AAPL", Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 185.5}
	if err := s.WriteBars(ctx, []domain.Bar{bar}); err != nil {
		t.Fatalf("WriteBars (first): %v", err)
	}

	// Rewriting the same (symbol, timestamp) replaces rather than duplicates.
	bar.Close = 186.0
	if err := s.WriteBars(ctx, []domain.Bar{bar}); err != nil {
		t.Fatalf("WriteBars (second): %v", err)
	}

	got, err := s.ReadBars(ctx, "AAPL",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ReadBars returned %d bars, want 1", len(got))
	}
	if got[0].Close != 186.0 {
		t.Errorf("bar Close = %v, want replaced value 186.0", got[0].Close)
	}
}

func TestSQLiteStoreTradeLog(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	trades := []domain.Trade{
		{Symbol: "AAPL", OrderType: domain.Buy, Quantity: 10, Price: 185.5, Timestamp: time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)},
		{Symbol: "AAPL", OrderType: domain.Sell, Quantity: 5, Price: 190.0, Timestamp: time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC)},
		{Symbol: "TSLA", OrderType: domain.BuyCall, Quantity: 2, Price: 12.5, Timestamp: time.Date(2024, 1, 4, 14, 30, 0, 0, time.UTC)},
	}
	for _, tr := range trades {
		if err := s.AppendTrade(ctx, tr); err != nil {
			t.Fatalf("AppendTrade: %v", err)
		}
	}

	got, err := s.ListTrades(ctx, 2)
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListTrades(2) returned %d trades, want 2", len(got))
	}
	// Newest first.
	if got[0].Symbol != "TSLA" || got[0].OrderType != domain.BuyCall {
		t.Errorf("first trade = %+v, want newest TSLA BUY_CALL", got[0])
	}

	all, err := s.ListTrades(ctx, 0)
	if err != nil {
		t.Fatalf("ListTrades(0): %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListTrades(0) returned %d trades, want 3", len(all))
	}
}
