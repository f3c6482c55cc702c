package model

// Position represents a held quantity of an instrument with cost basis.
// Quantity and AvgPrice are authoritative backend facts; LastPrice and the
// derived fields are refreshed locally as ticks arrive.
type Position struct {
	Token        string  `json:"token"`
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	AvgPrice     float64 `json:"avg_price"`
	LastPrice    float64 `json:"ltp"`
	CurrentValue float64 `json:"current_value"`
	PnL          float64 `json:"pnl"`
	PnLPercent   float64 `json:"pnl_percent"`
}

// Recompute refreshes CurrentValue, PnL, and PnLPercent from LastPrice.
// A zero AvgPrice yields PnLPercent 0 rather than a division error.
func (p *Position) Recompute() {
	p.CurrentValue = p.LastPrice * p.Quantity
	p.PnL = (p.LastPrice - p.AvgPrice) * p.Quantity
	if p.AvgPrice == 0 {
		p.PnLPercent = 0
	} else {
		p.PnLPercent = (p.LastPrice - p.AvgPrice) / p.AvgPrice * 100
	}
}
