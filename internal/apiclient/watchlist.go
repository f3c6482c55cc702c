package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/jeso2410/papertrade-frontend/internal/model"
	"github.com/jeso2410/papertrade-frontend/internal/symbol"
)

// FetchWatchlist returns the user's baseline watchlist, normalized.
// Items may be bare tokens (string or number — name unknown, left empty for
// the registry to default) or objects with instrument metadata (name
// resolved here). Sentinel tokens are filtered out at this boundary.
func (c *Client) FetchWatchlist(ctx context.Context, userID string) ([]model.WatchlistEntry, error) {
	body, err := c.get(ctx, "watchlist.fetch", c.baseURL+fmt.Sprintf(routes["watchlist.fetch"], url.PathEscape(userID)))
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("watchlist.fetch: decode: %w", err)
	}

	entries := make([]model.WatchlistEntry, 0, len(items))
	for _, item := range items {
		entry, ok := normalizeWatchlistItem(item)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// normalizeWatchlistItem turns one raw baseline item into an entry.
// Returns ok=false for items with no usable token.
func normalizeWatchlistItem(raw json.RawMessage) (model.WatchlistEntry, bool) {
	// Bare scalar token, as a JSON string or number.
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		token := num.String()
		if badToken(token) {
			return model.WatchlistEntry{}, false
		}
		return model.WatchlistEntry{Token: token}, true
	}

	// Plain string token (possibly non-numeric).
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if badToken(s) {
			return model.WatchlistEntry{}, false
		}
		return model.WatchlistEntry{Token: s}, true
	}

	// Object with metadata: resolve the display name here. The token
	// itself may be serialized as a string or a number.
	var obj struct {
		Token    json.Number `json:"token"`
		Symbol   string      `json:"symbol"`
		Name     string      `json:"name"`
		Exchange string      `json:"exchange"`
		Expiry   string      `json:"expiry"`
		Strike   float64     `json:"strike"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		token := obj.Token.String()
		if badToken(token) {
			return model.WatchlistEntry{}, false
		}
		meta := model.InstrumentMetadata{
			Token:    token,
			Symbol:   obj.Symbol,
			Name:     obj.Name,
			Exchange: obj.Exchange,
			Expiry:   obj.Expiry,
			Strike:   obj.Strike,
		}
		return model.WatchlistEntry{Token: token, DisplayName: symbol.Resolve(meta)}, true
	}

	return model.WatchlistEntry{}, false
}

// AddToWatchlist persists an added token. Fire-and-forget contract: the
// caller's local state does not depend on the outcome.
func (c *Client) AddToWatchlist(ctx context.Context, userID, sessionID, token string) error {
	params := url.Values{}
	params.Set("user_id", userID)
	params.Set("ws_id", sessionID)
	params.Set("token", token)
	_, err := c.postQuery(ctx, "watchlist.add", routes["watchlist.add"], params)
	return err
}

// RemoveFromWatchlist persists a removal.
func (c *Client) RemoveFromWatchlist(ctx context.Context, userID, sessionID, token string) error {
	params := url.Values{}
	params.Set("user_id", userID)
	params.Set("ws_id", sessionID)
	params.Set("token", token)
	_, err := c.postQuery(ctx, "watchlist.remove", routes["watchlist.remove"], params)
	return err
}

// SearchSymbol looks up instruments matching the query.
func (c *Client) SearchSymbol(ctx context.Context, query string) ([]model.InstrumentMetadata, error) {
	u := c.baseURL + routes["symbol.search"] + "?q=" + url.QueryEscape(query)
	body, err := c.get(ctx, "symbol.search", u)
	if err != nil {
		return nil, err
	}

	var results []model.InstrumentMetadata
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("symbol.search: decode: %w", err)
	}
	return results, nil
}

func badToken(token string) bool {
	return token == "" || token == "null" || token == "undefined"
}
