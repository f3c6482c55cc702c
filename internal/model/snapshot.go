package model

// ConnStatus reports the market stream connection state. Transitions are
// Connecting → Online → {Error, Disconnected} per connection instance; a
// reconnect starts a new instance back at Connecting. The status is
// informational — tick processing is never gated on it.
type ConnStatus string

const (
	StatusConnecting   ConnStatus = "Connecting"
	StatusOnline       ConnStatus = "Online"
	StatusError        ConnStatus = "Error"
	StatusDisconnected ConnStatus = "Disconnected"
)

// PortfolioSnapshot is the render-ready portfolio state. TotalPnL is always
// a fresh sum over Positions, never an incrementally maintained value.
type PortfolioSnapshot struct {
	Positions []Position `json:"positions"`
	TotalPnL  float64    `json:"total_pnl"`
}

// Snapshot is the immutable, render-ready view of the whole client state.
// A new value is built for every observable change; nothing in it aliases
// the coordinator's internal maps.
type Snapshot struct {
	Watchlist []WatchlistEntry  `json:"watchlist"`
	Ticks     map[string]Tick   `json:"ticks"`
	Portfolio PortfolioSnapshot `json:"portfolio"`
	Status    ConnStatus        `json:"status"`
}
