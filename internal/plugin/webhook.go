package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tradebot/internal/domain"
	"tradebot/internal/util"
)

// WebhookPlugin posts executed trades to an HTTP endpoint as a flat JSON
// record. Delivery failures are retried a bounded number of times and then
// logged; they never propagate into the trading loop.
type WebhookPlugin struct {
	Base
	url        string
	client     *http.Client
	retries    int
	retryDelay time.Duration
	log        *slog.Logger
}

var _ Plugin = (*WebhookPlugin)(nil)

// NewWebhookPlugin creates a WebhookPlugin posting to url.
func NewWebhookPlugin(url string) *WebhookPlugin {
	return &WebhookPlugin{
		url:        url,
		client:     &http.Client{Timeout: 10 * time.Second},
		retries:    3,
		retryDelay: time.Second,
		log:        slog.Default().With("plugin", "webhook"),
	}
}

func (w *WebhookPlugin) Name() string { return "webhook" }

func (w *WebhookPlugin) OnTradeExecuted(trade domain.Trade) {
	record := map[string]any{
		"symbol":    trade.Symbol,
		"action":    string(trade.OrderType),
		"quantity":  trade.Quantity,
		"price":     trade.Price,
		"timestamp": trade.Timestamp.UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(record)
	if err != nil {
		w.log.Error("marshal trade record", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = util.Retry(ctx, w.retries, w.retryDelay, func() error {
		return w.post(ctx, body)
	})
	if err != nil {
		w.log.Error("webhook delivery failed", "url", w.url, "error", err)
	}
}

func (w *WebhookPlugin) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
