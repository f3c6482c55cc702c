// Package watchlist owns the instrument-id → display-name mapping shown on
// the dashboard. Two benchmark instruments are protected: they are seeded at
// construction, survive every baseline merge, and cannot be removed.
package watchlist

import (
	"strings"

	"github.com/jeso2410/papertrade-frontend/internal/model"
	"github.com/jeso2410/papertrade-frontend/internal/symbol"
)

// PlaceholderPrefix starts every synthesized display name used until richer
// metadata resolves a real one.
const PlaceholderPrefix = "Token "

// protectedOrder fixes the seeding order of the benchmark entries so
// snapshots are deterministic.
var protectedOrder = []string{"99926000", "99926009"}

// protected maps the benchmark tokens to their canonical names.
var protected = map[string]string{
	"99926000": "NIFTY",
	"99926009": "BANKNIFTY",
}

// Registry owns the watchlist entries. It is not safe for concurrent use:
// a single coordinator goroutine is the only writer, per the session model.
type Registry struct {
	entries map[string]*model.WatchlistEntry
	order   []string // insertion order, for stable snapshots
}

// New returns a Registry seeded with the protected benchmark entries.
func New() *Registry {
	r := &Registry{entries: make(map[string]*model.WatchlistEntry)}
	r.reinsertProtected()
	return r
}

// MergeBaseline replaces the whole mapping with the fetched baseline.
// Entries are deduplicated by token (last one wins), names are defaulted to
// "Token {id}" when empty or an invalid sentinel, and the protected entries
// are force-reinserted with their canonical names afterwards, overriding
// whatever the baseline said about them.
func (r *Registry) MergeBaseline(entries []model.WatchlistEntry) {
	r.entries = make(map[string]*model.WatchlistEntry, len(entries)+len(protected))
	r.order = r.order[:0]

	for _, e := range entries {
		if invalidToken(e.Token) {
			continue
		}
		name := e.DisplayName
		if invalidName(name) {
			name = PlaceholderPrefix + e.Token
		}
		if _, seen := r.entries[e.Token]; !seen {
			r.order = append(r.order, e.Token)
		}
		r.entries[e.Token] = &model.WatchlistEntry{Token: e.Token, DisplayName: name}
	}

	r.reinsertProtected()
}

// Add resolves a display name for the instrument and upserts it with
// PendingSync set. The caller schedules backend persistence; the entry stays
// regardless of that call's outcome.
func (r *Registry) Add(meta model.InstrumentMetadata) model.WatchlistEntry {
	name := symbol.Resolve(meta)
	if invalidName(name) {
		name = PlaceholderPrefix + meta.Token
	}

	e, ok := r.entries[meta.Token]
	if !ok {
		e = &model.WatchlistEntry{Token: meta.Token}
		r.entries[meta.Token] = e
		r.order = append(r.order, meta.Token)
	}
	e.DisplayName = name
	if !e.Protected {
		e.PendingSync = true
	}
	return *e
}

// Remove deletes the entry. Protected tokens are rejected; the registry is
// left unchanged and false is returned.
func (r *Registry) Remove(token string) bool {
	if _, isProtected := protected[token]; isProtected {
		return false
	}
	if _, ok := r.entries[token]; !ok {
		return false
	}
	delete(r.entries, token)
	for i, t := range r.order {
		if t == token {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// UpgradeNameIfPlaceholder replaces the entry's name when, and only when,
// the current name is still a placeholder and the candidate metadata
// resolves to a usable name. The upgrade is one-directional: once a real
// name is set it never regresses, and manually chosen names are never
// overwritten.
func (r *Registry) UpgradeNameIfPlaceholder(token string, meta model.InstrumentMetadata) bool {
	e, ok := r.entries[token]
	if !ok || e.Protected {
		return false
	}
	if !strings.HasPrefix(e.DisplayName, PlaceholderPrefix) && e.DisplayName != "" {
		return false
	}
	name := symbol.Resolve(meta)
	if invalidName(name) || name == e.DisplayName {
		return false
	}
	e.DisplayName = name
	return true
}

// MarkSynced clears the PendingSync flag after a confirmed persistence call.
func (r *Registry) MarkSynced(token string) {
	if e, ok := r.entries[token]; ok {
		e.PendingSync = false
	}
}

// Has reports whether the token is on the watchlist.
func (r *Registry) Has(token string) bool {
	_, ok := r.entries[token]
	return ok
}

// Name returns the current display name for the token, or "".
func (r *Registry) Name(token string) string {
	if e, ok := r.entries[token]; ok {
		return e.DisplayName
	}
	return ""
}

// Entries returns a copy of all entries in insertion order.
func (r *Registry) Entries() []model.WatchlistEntry {
	out := make([]model.WatchlistEntry, 0, len(r.order))
	for _, token := range r.order {
		if e, ok := r.entries[token]; ok {
			out = append(out, *e)
		}
	}
	return out
}

func (r *Registry) reinsertProtected() {
	for _, token := range protectedOrder {
		if _, seen := r.entries[token]; !seen {
			r.order = append(r.order, token)
		}
		r.entries[token] = &model.WatchlistEntry{Token: token, DisplayName: protected[token], Protected: true}
	}
}

func invalidToken(token string) bool {
	return token == "" || token == "null" || token == "undefined"
}

// invalidName matches the sentinel junk the backend has been seen to return
// for unnamed instruments.
func invalidName(name string) bool {
	switch name {
	case "", "null", "undefined", "---":
		return true
	}
	return false
}
