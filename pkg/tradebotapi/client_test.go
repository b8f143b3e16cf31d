package tradebotapi

import (
	"context"
	"net/http/httptest"
	"testing"

	"tradebot/internal/broker"
	"tradebot/internal/domain"
	"tradebot/internal/httpapi"
)

func newAPIServer(t *testing.T) (*Client, *broker.PaperBroker) {
	t.Helper()
	b := broker.NewPaperBroker(10000)
	srv := httptest.NewServer(httpapi.NewServer(b, nil, nil, nil).Handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL), b
}

func TestGetStatus(t *testing.T) {
	c, _ := newAPIServer(t)

	status, err := c.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus() returned error: %v", err)
	}
	if status.Status != "ok" || status.Broker != "paper" {
		t.Errorf("status = %+v, want ok/paper", status)
	}
}

func TestGetAccountAndPositions(t *testing.T) {
	c, b := newAPIServer(t)

	if _, err := b.PlaceOrder(context.Background(), "AAPL", domain.Buy, 10, 100); err != nil {
		t.Fatalf("placing order: %v", err)
	}

	account, err := c.GetAccount(context.Background())
	if err != nil {
		t.Fatalf("GetAccount() returned error: %v", err)
	}
	if account.Cash != 9000 || account.OpenPositions != 1 {
		t.Errorf("account = %+v, want cash 9000 and 1 open position", account)
	}

	positions, err := c.GetPositions(context.Background())
	if err != nil {
		t.Fatalf("GetPositions() returned error: %v", err)
	}
	if len(positions) != 1 || positions[0].Symbol != "AAPL" {
		t.Errorf("positions = %+v, want one AAPL position", positions)
	}
}

func TestGetTrades(t *testing.T) {
	c, b := newAPIServer(t)

	ctx := context.Background()
	for _, price := range []float64{100, 101, 102} {
		if _, err := b.PlaceOrder(ctx, "SPY", domain.Buy, 1, price); err != nil {
			t.Fatalf("placing order: %v", err)
		}
	}

	trades, err := c.GetTrades(ctx, 2)
	if err != nil {
		t.Fatalf("GetTrades() returned error: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("trades length = %d, want 2", len(trades))
	}
	if trades[0].Price != 102 {
		t.Errorf("first trade price = %v, want newest (102) first", trades[0].Price)
	}
}

func TestGetLatestBarErrorSurfacesReason(t *testing.T) {
	c, _ := newAPIServer(t)

	_, err := c.GetLatestBar(context.Background(), "AAPL")
	if err == nil {
		t.Fatal("GetLatestBar() should fail when no bar store is configured")
	}
}
