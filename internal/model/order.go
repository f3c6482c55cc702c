package model

import "time"

// OrderRequest is the payload for placing a paper trade.
type OrderRequest struct {
	UserID     string `json:"user_id"`
	Token      string `json:"token"`
	SymbolName string `json:"symbol_name"`
	OrderType  string `json:"order_type"` // BUY or SELL
	Quantity   int64  `json:"quantity"`
}

// OrderResult is the backend's response to a placed order.
type OrderResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TradeRecord is one closed trade from the backend history. All money
// fields, including brokerage and net P&L, are server-computed facts.
type TradeRecord struct {
	SymbolName string    `json:"symbol_name"`
	TradeType  string    `json:"trade_type"` // LONG_EXIT or SHORT_EXIT
	Quantity   int64     `json:"quantity"`
	BuyPrice   float64   `json:"buy_price"`
	SellPrice  float64   `json:"sell_price"`
	GrossPnL   float64   `json:"pnl"`
	Brokerage  float64   `json:"brokerage"`
	NetPnL     float64   `json:"net_pnl"`
	CreatedAt  time.Time `json:"created_at"`
}
