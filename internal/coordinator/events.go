package coordinator

import "github.com/jeso2410/papertrade-frontend/internal/model"

// Event is one input to the coordinator's reducer. Everything that can
// change client state — a tick, a baseline fetch completing, an explicit
// add/remove, a connection status transition — arrives as an Event, so the
// whole control flow is testable without a live connection.
type Event interface {
	eventName() string
}

// TickReceived carries one parsed stream message. Meta holds whatever
// instrument metadata the message included; it may be empty apart from the
// token.
type TickReceived struct {
	Tick model.Tick
	Meta model.InstrumentMetadata
}

// BaselineLoaded delivers the result of a watchlist + positions fetch.
// A failed fetch is delivered as empty slices: the registry then contains
// only the protected benchmarks and the portfolio is empty.
type BaselineLoaded struct {
	Watchlist []model.WatchlistEntry
	Positions []model.Position
}

// EntryAdded is an explicit user request to watch an instrument.
type EntryAdded struct {
	Meta model.InstrumentMetadata
}

// EntryRemoved is an explicit user request to stop watching an instrument.
type EntryRemoved struct {
	Token string
}

// StatusChanged reports a stream connection transition. Informational:
// tick processing is never gated on it.
type StatusChanged struct {
	Status model.ConnStatus
}

// persistResult is the internal completion event for a fire-and-forget
// watchlist persistence call.
type persistResult struct {
	Op    string // "add" or "remove"
	Token string
	Err   error
}

func (TickReceived) eventName() string   { return "tick_received" }
func (BaselineLoaded) eventName() string { return "baseline_loaded" }
func (EntryAdded) eventName() string     { return "entry_added" }
func (EntryRemoved) eventName() string   { return "entry_removed" }
func (StatusChanged) eventName() string  { return "status_changed" }
func (persistResult) eventName() string  { return "persist_result" }
