// Package apiclient is the HTTP glue to the papertrade backend.
//
// It owns all response-shape tolerance: the backend has served bare token
// lists, object lists, and status-wrapped envelopes for the same routes
// over time, and every accepted shape is normalized into the canonical
// model types here, before anything reaches the sync core.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jeso2410/papertrade-frontend/internal/metrics"
	"github.com/jeso2410/papertrade-frontend/internal/model"
)

const defaultTimeout = 7 * time.Second

// routes maps logical names to backend paths.
var routes = map[string]string{
	"watchlist.fetch":  "/watchlist/%s",
	"watchlist.add":    "/watchlist/add",
	"watchlist.remove": "/watchlist/remove",
	"positions":        "/trade/positions/%s",
	"order.place":      "/trade/place_order",
	"trade.history":    "/trade/history/%s",
	"symbol.search":    "/search-symbol",
}

// Config configures the backend client.
type Config struct {
	BaseURL string        // e.g. "https://backend-1-mpd2.onrender.com"
	Timeout time.Duration // default 7s
}

// Client talks to the papertrade backend. It implements the
// WatchlistService, PositionService, TradeService, and SymbolSearcher
// ports from internal/model.
type Client struct {
	baseURL    string
	httpClient *http.Client
	met        *metrics.Metrics // nil disables request timing
}

// New creates a backend client.
func New(cfg Config, met *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		met:        met,
	}
}

// get issues a GET and returns the raw body for route-specific parsing.
func (c *Client) get(ctx context.Context, route, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", route, err)
	}
	return c.do(route, req)
}

// postJSON issues a POST with a JSON body.
func (c *Client) postJSON(ctx context.Context, route, rawURL string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode body: %w", route, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", route, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(route, req)
}

// postQuery issues a POST whose parameters travel in the query string,
// matching the backend's watchlist add/remove contract.
func (c *Client) postQuery(ctx context.Context, route, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", route, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(route, req)
}

func (c *Client) do(route string, req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.met != nil {
		c.met.APIRequestDur.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", route, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", route, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: unexpected status %d", route, resp.StatusCode)
	}
	return body, nil
}

var _ model.WatchlistService = (*Client)(nil)
var _ model.PositionService = (*Client)(nil)
var _ model.TradeService = (*Client)(nil)
var _ model.SymbolSearcher = (*Client)(nil)
