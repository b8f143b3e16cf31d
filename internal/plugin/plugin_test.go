package plugin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tradebot/internal/domain"
)

// recorder captures every callback it receives.
type recorder struct {
	mu       sync.Mutex
	started  int
	stopped  int
	bars     []domain.Bar
	signals  []domain.OrderType
	orders   []string
	executed []domain.Trade
	failed   []string
	block    chan struct{}
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnAppStart() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *recorder) OnAppStop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped++
}

func (r *recorder) OnDataFetched(bar domain.Bar) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bars = append(r.bars, bar)
}

func (r *recorder) OnSignalGenerated(orderType domain.OrderType, bar domain.Bar) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, orderType)
}

func (r *recorder) OnOrderValidated(trade domain.Trade, ok bool, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, reason)
}

func (r *recorder) OnTradeExecuted(trade domain.Trade) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executed = append(r.executed, trade)
}

func (r *recorder) OnOrderFailed(trade domain.Trade, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, reason)
}

func TestDispatcherDeliversEvents(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher([]Plugin{rec}, 16)

	bar := domain.Bar{Symbol: "AAPL", Close: 101}
	trade := domain.Trade{Symbol: "AAPL", OrderType: domain.Buy, Quantity: 5, Price: 101}

	d.AppStart()
	d.DataFetched(bar)
	d.SignalGenerated(domain.Buy, bar)
	d.OrderValidated(trade, false, "order size exceeds limit")
	d.TradeExecuted(trade)
	d.OrderFailed(trade, "broker unavailable")
	d.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.started != 1 || rec.stopped != 1 {
		t.Errorf("started=%d stopped=%d, want 1 and 1", rec.started, rec.stopped)
	}
	if len(rec.bars) != 1 || rec.bars[0].Symbol != "AAPL" {
		t.Errorf("bars = %v, want one AAPL bar", rec.bars)
	}
	if len(rec.signals) != 1 || rec.signals[0] != domain.Buy {
		t.Errorf("signals = %v, want [BUY]", rec.signals)
	}
	if len(rec.orders) != 1 || rec.orders[0] != "order size exceeds limit" {
		t.Errorf("orders = %v, want rejection reason", rec.orders)
	}
	if len(rec.executed) != 1 || rec.executed[0].Quantity != 5 {
		t.Errorf("executed = %v, want one trade of quantity 5", rec.executed)
	}
	if len(rec.failed) != 1 || rec.failed[0] != "broker unavailable" {
		t.Errorf("failed = %v, want one failure reason", rec.failed)
	}
}

func TestDispatcherDoesNotBlockPublisher(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	d := NewDispatcher([]Plugin{rec}, 1)

	// First event occupies the worker, second fills the buffer. Everything
	// after that must be dropped without blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.DataFetched(domain.Bar{Symbol: "SPY"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing blocked on a stalled plugin")
	}

	close(rec.block)
	d.Close()

	if d.Dropped() == 0 {
		t.Error("expected dropped events with a stalled plugin and full buffer")
	}
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher([]Plugin{rec}, 4)
	d.Close()
	d.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.stopped != 1 {
		t.Errorf("stopped = %d, want 1", rec.stopped)
	}

	// Publishing after Close is a no-op, not a panic.
	d.DataFetched(domain.Bar{Symbol: "SPY"})
}

func TestWebhookPluginPostsTradeRecord(t *testing.T) {
	var (
		mu   sync.Mutex
		body map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rec map[string]any
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		mu.Lock()
		body = rec
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhookPlugin(srv.URL)
	ts := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	w.OnTradeExecuted(domain.Trade{
		Symbol: "AAPL", OrderType: domain.Sell, Quantity: 3, Price: 187.5, Timestamp: ts,
	})

	mu.Lock()
	defer mu.Unlock()
	if body == nil {
		t.Fatal("webhook was never called")
	}
	if body["symbol"] != "AAPL" || body["action"] != "SELL" {
		t.Errorf("record = %v, want symbol AAPL action SELL", body)
	}
	if body["quantity"].(float64) != 3 || body["price"].(float64) != 187.5 {
		t.Errorf("record = %v, want quantity 3 price 187.5", body)
	}
	if body["timestamp"] != "2024-03-01T15:30:00Z" {
		t.Errorf("timestamp = %v, want RFC3339 UTC", body["timestamp"])
	}
}

func TestWebhookPluginRetriesOnServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhookPlugin(srv.URL)
	w.retryDelay = time.Millisecond
	w.OnTradeExecuted(domain.Trade{Symbol: "SPY", OrderType: domain.Buy, Quantity: 1, Price: 500})

	if calls != 3 {
		t.Errorf("calls = %d, want 3 (two failures then success)", calls)
	}
}
