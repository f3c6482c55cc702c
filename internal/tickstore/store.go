// Package tickstore owns the latest-tick-per-instrument map.
//
// Every stream message is a complete snapshot for its instrument, so the
// store is a plain last-write-wins overwrite: no merging across fields, no
// reordering. Ticks are never deleted; a removed watchlist entry simply
// stops being rendered.
package tickstore

import "github.com/jeso2410/papertrade-frontend/internal/model"

// Store maps instrument token → latest tick. Like the registry it has a
// single writer (the coordinator) and needs no locking.
type Store struct {
	latest map[string]model.Tick
}

// New returns an empty Store.
func New() *Store {
	return &Store{latest: make(map[string]model.Tick)}
}

// Apply overwrites the stored tick for its instrument and returns the token
// that changed, so the caller can recompute downstream state for that one
// instrument instead of rescanning everything.
func (s *Store) Apply(tick model.Tick) string {
	s.latest[tick.Token] = tick
	return tick.Token
}

// Get returns the latest tick for a token.
func (s *Store) Get(token string) (model.Tick, bool) {
	t, ok := s.latest[token]
	return t, ok
}

// Len returns the number of instruments with at least one tick.
func (s *Store) Len() int {
	return len(s.latest)
}

// All returns a copy of the latest-tick map, safe to hand to a snapshot.
func (s *Store) All() map[string]model.Tick {
	out := make(map[string]model.Tick, len(s.latest))
	for k, v := range s.latest {
		out[k] = v
	}
	return out
}
