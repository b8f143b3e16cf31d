// Package tradebotapi provides a Go client for the bot's REST API.
package tradebotapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tradebot/internal/httpapi"
)

// Client talks to a running bot's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL (e.g. "http://localhost:8080").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetStatus retrieves the bot's identity and uptime.
func (c *Client) GetStatus(ctx context.Context) (*httpapi.StatusJSON, error) {
	var out httpapi.StatusJSON
	if err := c.get(ctx, "/api/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccount retrieves the ledger summary.
func (c *Client) GetAccount(ctx context.Context) (*httpapi.AccountJSON, error) {
	var out httpapi.AccountJSON
	if err := c.get(ctx, "/api/account", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPositions retrieves all current positions.
func (c *Client) GetPositions(ctx context.Context) ([]httpapi.PositionJSON, error) {
	var out []httpapi.PositionJSON
	if err := c.get(ctx, "/api/positions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrades retrieves up to limit executed trades, newest first. A limit of
// 0 returns all trades.
func (c *Client) GetTrades(ctx context.Context, limit int) ([]httpapi.TradeJSON, error) {
	path := "/api/trades"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []httpapi.TradeJSON
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLatestBar retrieves the most recent stored bar for a symbol.
func (c *Client) GetLatestBar(ctx context.Context, symbol string) (*httpapi.BarJSON, error) {
	var out httpapi.BarJSON
	if err := c.get(ctx, "/api/bars/"+url.PathEscape(symbol)+"/latest", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("GET %s: %s (status %d)", path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
