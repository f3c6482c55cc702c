package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeso2410/papertrade-frontend/internal/model"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(Config{BaseURL: srv.URL}, nil), srv
}

func TestFetchWatchlist_NormalizesAllShapes(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/watchlist/u1", r.URL.Path)
		// Bare string token, bare numeric token, metadata object,
		// derivative object, and sentinel junk all in one response.
		w.Write([]byte(`[
			"2885",
			3045,
			{"token": "11536", "symbol": "TCS-EQ", "name": "Tata Consultancy"},
			{"token": 43125, "symbol": "NIFTY15MAR2421500CE", "name": "NIFTY", "expiry": "15MAR24", "strike": 21500.7},
			"null",
			"undefined",
			null
		]`))
	}))
	defer srv.Close()

	entries, err := c.FetchWatchlist(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, model.WatchlistEntry{Token: "2885"}, entries[0])
	assert.Equal(t, model.WatchlistEntry{Token: "3045"}, entries[1])
	assert.Equal(t, model.WatchlistEntry{Token: "11536", DisplayName: "TCS-EQ"}, entries[2])
	assert.Equal(t, model.WatchlistEntry{Token: "43125", DisplayName: "NIFTY 15 MAR 21500 CALL"}, entries[3])
}

func TestFetchWatchlist_ErrorPropagates(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := c.FetchWatchlist(context.Background(), "u1")
	assert.Error(t, err)
}

func TestAddRemoveWatchlist_QueryParams(t *testing.T) {
	var gotPath, gotQuery string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Encode()
		w.Write([]byte(`{"status":"added"}`))
	}))
	defer srv.Close()

	require.NoError(t, c.AddToWatchlist(context.Background(), "u1", "ws9", "2885"))
	assert.Equal(t, "/watchlist/add", gotPath)
	assert.Equal(t, "token=2885&user_id=u1&ws_id=ws9", gotQuery)

	require.NoError(t, c.RemoveFromWatchlist(context.Background(), "u1", "ws9", "2885"))
	assert.Equal(t, "/watchlist/remove", gotPath)
}

func TestFetchPositions_Envelope(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trade/positions/u1", r.URL.Path)
		w.Write([]byte(`{
			"status": "success",
			"total_pnl": 120.5,
			"positions": [
				{"token": "55", "symbol": "SBIN-EQ", "quantity": 10, "avg_price": 100, "ltp": 110},
				{"token": 56, "symbol": "TCS-EQ", "quantity": "2", "avg_price": "3000.5", "ltp": "2990"}
			]
		}`))
	}))
	defer srv.Close()

	positions, total, err := c.FetchPositions(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 120.5, total)
	require.Len(t, positions, 2)

	assert.Equal(t, 1100.0, positions[0].CurrentValue)
	assert.Equal(t, 100.0, positions[0].PnL)
	assert.InDelta(t, 10.0, positions[0].PnLPercent, 1e-9)

	// String-typed numerics are tolerated.
	assert.Equal(t, "56", positions[1].Token)
	assert.Equal(t, 2.0, positions[1].Quantity)
	assert.InDelta(t, -21.0, positions[1].PnL, 1e-9)
}

func TestFetchPositions_BareArray(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"token": "55", "symbol": "SBIN-EQ", "quantity": 5, "avg_price": 0, "ltp": 50}]`))
	}))
	defer srv.Close()

	positions, total, err := c.FetchPositions(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, total)
	require.Len(t, positions, 1)
	assert.Equal(t, 0.0, positions[0].PnLPercent, "zero avg price must not divide")
	assert.Equal(t, 250.0, positions[0].PnL)
}

func TestPlaceOrder(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/trade/place_order", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"status":"success","message":"Order placed"}`))
	}))
	defer srv.Close()

	res, err := c.PlaceOrder(context.Background(), model.OrderRequest{
		UserID: "u1", Token: "55", SymbolName: "SBIN-EQ", OrderType: "BUY", Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "Order placed", res.Message)
}

func TestFetchTradeHistory_EnvelopeAndBare(t *testing.T) {
	payloads := []string{
		`{"status":"success","data":[{"symbol_name":"SBIN-EQ","trade_type":"LONG_EXIT","quantity":10,"buy_price":100,"sell_price":110,"pnl":100,"brokerage":2.5,"net_pnl":97.5,"created_at":"2024-03-15T10:30:00Z"}]}`,
		`[{"symbol_name":"SBIN-EQ","trade_type":"LONG_EXIT","quantity":10,"buy_price":100,"sell_price":110,"pnl":100,"brokerage":2.5,"net_pnl":97.5,"created_at":"2024-03-15T10:30:00Z"}]`,
	}

	for _, payload := range payloads {
		body := payload
		c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		trades, err := c.FetchTradeHistory(context.Background(), "u1")
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, "SBIN-EQ", trades[0].SymbolName)
		assert.Equal(t, 97.5, trades[0].NetPnL)
		srv.Close()
	}
}
