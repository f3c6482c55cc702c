package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/jeso2410/papertrade-frontend/internal/model"
)

// FetchPositions returns the position baseline plus the server-reported
// total P&L. The route has served both a `{status, positions, total_pnl}`
// envelope and a bare array; both are accepted. Numeric fields arriving as
// strings are tolerated, matching what the backend has actually emitted.
func (c *Client) FetchPositions(ctx context.Context, userID string) ([]model.Position, float64, error) {
	body, err := c.get(ctx, "positions", c.baseURL+fmt.Sprintf(routes["positions"], url.PathEscape(userID)))
	if err != nil {
		return nil, 0, err
	}

	var envelope struct {
		Status    string         `json:"status"`
		Positions []wirePosition `json:"positions"`
		TotalPnL  json.Number    `json:"total_pnl"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Status == "success" {
		positions := normalizePositions(envelope.Positions)
		total, _ := envelope.TotalPnL.Float64()
		return positions, total, nil
	}

	var bare []wirePosition
	if err := json.Unmarshal(body, &bare); err == nil {
		return normalizePositions(bare), 0, nil
	}

	return nil, 0, fmt.Errorf("positions: unrecognized response shape")
}

// wirePosition tolerates numeric fields serialized as strings.
type wirePosition struct {
	Token      json.Number `json:"token"`
	Symbol     string      `json:"symbol"`
	Quantity   json.Number `json:"quantity"`
	AvgPrice   json.Number `json:"avg_price"`
	LTP        json.Number `json:"ltp"`
	PnL        json.Number `json:"pnl"`
	PnLPercent json.Number `json:"pnl_percent"`
}

func normalizePositions(in []wirePosition) []model.Position {
	out := make([]model.Position, 0, len(in))
	for _, w := range in {
		token := w.Token.String()
		if badToken(token) {
			continue
		}
		qty, _ := w.Quantity.Float64()
		avg, _ := w.AvgPrice.Float64()
		ltp, _ := w.LTP.Float64()
		p := model.Position{
			Token:     token,
			Symbol:    w.Symbol,
			Quantity:  qty,
			AvgPrice:  avg,
			LastPrice: ltp,
		}
		// Derived fields are recomputed locally; server values for pnl
		// and percent are ignored rather than trusted half-stale.
		p.Recompute()
		out = append(out, p)
	}
	return out
}

// PlaceOrder submits a paper trade.
func (c *Client) PlaceOrder(ctx context.Context, req model.OrderRequest) (model.OrderResult, error) {
	body, err := c.postJSON(ctx, "order.place", c.baseURL+routes["order.place"], req)
	if err != nil {
		return model.OrderResult{}, err
	}

	var res model.OrderResult
	if err := json.Unmarshal(body, &res); err != nil {
		return model.OrderResult{}, fmt.Errorf("order.place: decode: %w", err)
	}
	return res, nil
}

// FetchTradeHistory returns the user's closed trades. Accepts the
// `{status, data}` envelope or a bare array.
func (c *Client) FetchTradeHistory(ctx context.Context, userID string) ([]model.TradeRecord, error) {
	body, err := c.get(ctx, "trade.history", c.baseURL+fmt.Sprintf(routes["trade.history"], url.PathEscape(userID)))
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Status string              `json:"status"`
		Data   []model.TradeRecord `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Status == "success" {
		return envelope.Data, nil
	}

	var bare []model.TradeRecord
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	return nil, fmt.Errorf("trade.history: unrecognized response shape")
}
