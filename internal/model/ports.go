package model

import "context"

// ── Collaborator Port Interfaces ──
// These interfaces decouple the sync core from concrete collaborators
// (HTTP API client, Redis publisher, SQLite journal). The coordinator and
// cmd wiring depend on these, never on the implementations.

// WatchlistService fetches and persists the user's watchlist on the backend.
// Add and Remove are fire-and-forget from the core's point of view: local
// state is updated optimistically and never rolled back on failure.
type WatchlistService interface {
	// FetchWatchlist returns the normalized baseline watchlist. Bare-token
	// items come back with an empty DisplayName for the registry to default.
	FetchWatchlist(ctx context.Context, userID string) ([]WatchlistEntry, error)

	// AddToWatchlist persists an added token for the user's session.
	AddToWatchlist(ctx context.Context, userID, sessionID, token string) error

	// RemoveFromWatchlist persists a removal.
	RemoveFromWatchlist(ctx context.Context, userID, sessionID, token string) error
}

// PositionService fetches the position baseline. Quantity and AvgPrice are
// authoritative backend facts; a fetch failure means an empty portfolio,
// never a fatal error.
type PositionService interface {
	// FetchPositions returns positions plus the server-reported total P&L.
	FetchPositions(ctx context.Context, userID string) ([]Position, float64, error)
}

// TradeService places paper orders and reads trade history.
type TradeService interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	FetchTradeHistory(ctx context.Context, userID string) ([]TradeRecord, error)
}

// SymbolSearcher looks up instruments by query string.
type SymbolSearcher interface {
	SearchSymbol(ctx context.Context, query string) ([]InstrumentMetadata, error)
}

// TickPublisher mirrors live state into a shared store (e.g. Redis) so
// sibling processes can render without their own stream connection.
// Implementations must never block the caller on store outages.
type TickPublisher interface {
	PublishTick(tick Tick)
	PublishSnapshot(snap Snapshot)
	Close() error
}

// OrderJournal records orders placed through this client and caches fetched
// trade history locally for offline review.
type OrderJournal interface {
	RecordOrder(req OrderRequest, res OrderResult) error
	CacheTrades(trades []TradeRecord) error
	Close() error
}
