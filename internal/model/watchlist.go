package model

// WatchlistEntry is one instrument on the user's watchlist.
//
// PendingSync marks an entry whose add has been applied locally but not yet
// confirmed by the backend. Local state is never rolled back on persistence
// failure; the flag makes the inconsistency window visible to callers.
type WatchlistEntry struct {
	Token       string `json:"token"`
	DisplayName string `json:"display_name"`
	Protected   bool   `json:"protected,omitempty"`
	PendingSync bool   `json:"pending_sync,omitempty"`
}
