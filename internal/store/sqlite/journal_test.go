package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jeso2410/papertrade-frontend/internal/model"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := NewJournal(JournalConfig{DBPath: filepath.Join(t.TempDir(), "dashboard.db")}, nil)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecordOrder(t *testing.T) {
	j := openTestJournal(t)

	req := model.OrderRequest{
		UserID:     "u1",
		Token:      "2885",
		SymbolName: "RELIANCE",
		OrderType:  "BUY",
		Quantity:   10,
	}
	res := model.OrderResult{Status: "success", Message: "order placed"}

	if err := j.RecordOrder(req, res); err != nil {
		t.Fatalf("record order: %v", err)
	}
	if err := j.RecordOrder(req, res); err != nil {
		t.Fatalf("record order again: %v", err)
	}

	n, err := j.OrderCount()
	if err != nil {
		t.Fatalf("order count: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 journaled orders, got %d", n)
	}
}

func TestJournal_CacheTradesReplacesPreviousFetch(t *testing.T) {
	j := openTestJournal(t)

	first := []model.TradeRecord{
		{SymbolName: "RELIANCE", TradeType: "LONG_EXIT", Quantity: 5, BuyPrice: 2800, SellPrice: 2850, GrossPnL: 250, Brokerage: 40, NetPnL: 210, CreatedAt: time.Unix(1700000000, 0).UTC()},
		{SymbolName: "TCS", TradeType: "SHORT_EXIT", Quantity: 2, BuyPrice: 3900, SellPrice: 4000, GrossPnL: 200, Brokerage: 20, NetPnL: 180, CreatedAt: time.Unix(1700000100, 0).UTC()},
	}
	if err := j.CacheTrades(first); err != nil {
		t.Fatalf("cache first fetch: %v", err)
	}

	second := []model.TradeRecord{
		{SymbolName: "INFY", TradeType: "LONG_EXIT", Quantity: 8, BuyPrice: 1500, SellPrice: 1490, GrossPnL: -80, Brokerage: 16, NetPnL: -96, CreatedAt: time.Unix(1700000200, 0).UTC()},
	}
	if err := j.CacheTrades(second); err != nil {
		t.Fatalf("cache second fetch: %v", err)
	}

	got, err := j.CachedTrades()
	if err != nil {
		t.Fatalf("cached trades: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected cache replaced with 1 trade, got %d", len(got))
	}
	if got[0].SymbolName != "INFY" || got[0].NetPnL != -96 {
		t.Errorf("unexpected cached trade: %+v", got[0])
	}
	if !got[0].CreatedAt.Equal(time.Unix(1700000200, 0)) {
		t.Errorf("created_at not round-tripped: %v", got[0].CreatedAt)
	}
}

func TestJournal_CachedTradesNewestFirst(t *testing.T) {
	j := openTestJournal(t)

	trades := []model.TradeRecord{
		{SymbolName: "RELIANCE", TradeType: "LONG_EXIT", Quantity: 1, CreatedAt: time.Unix(1700000000, 0)},
		{SymbolName: "TCS", TradeType: "LONG_EXIT", Quantity: 1, CreatedAt: time.Unix(1700000500, 0)},
		{SymbolName: "INFY", TradeType: "LONG_EXIT", Quantity: 1, CreatedAt: time.Unix(1700000250, 0)},
	}
	if err := j.CacheTrades(trades); err != nil {
		t.Fatalf("cache trades: %v", err)
	}

	got, err := j.CachedTrades()
	if err != nil {
		t.Fatalf("cached trades: %v", err)
	}
	want := []string{"TCS", "INFY", "RELIANCE"}
	for i, sym := range want {
		if got[i].SymbolName != sym {
			t.Fatalf("position %d: expected %s, got %s", i, sym, got[i].SymbolName)
		}
	}
}

func TestJournal_EmptyCache(t *testing.T) {
	j := openTestJournal(t)

	got, err := j.CachedTrades()
	if err != nil {
		t.Fatalf("cached trades: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty cache, got %d trades", len(got))
	}
}
