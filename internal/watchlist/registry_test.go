package watchlist

import (
	"testing"

	"github.com/jeso2410/papertrade-frontend/internal/model"
)

func entryMap(r *Registry) map[string]model.WatchlistEntry {
	m := make(map[string]model.WatchlistEntry)
	for _, e := range r.Entries() {
		m[e.Token] = e
	}
	return m
}

func TestNew_SeedsProtectedEntries(t *testing.T) {
	r := New()
	m := entryMap(r)

	if e := m["99926000"]; e.DisplayName != "NIFTY" || !e.Protected {
		t.Errorf("expected protected NIFTY, got %+v", e)
	}
	if e := m["99926009"]; e.DisplayName != "BANKNIFTY" || !e.Protected {
		t.Errorf("expected protected BANKNIFTY, got %+v", e)
	}
}

func TestMergeBaseline_ProtectedAlwaysSurvive(t *testing.T) {
	r := New()

	// Baseline tries to rename one benchmark and omits the other.
	r.MergeBaseline([]model.WatchlistEntry{
		{Token: "99926000", DisplayName: "SOMETHING ELSE"},
		{Token: "2885", DisplayName: "RELIANCE-EQ"},
	})
	r.MergeBaseline([]model.WatchlistEntry{
		{Token: "3045", DisplayName: "SBIN-EQ"},
	})

	m := entryMap(r)
	if e := m["99926000"]; e.DisplayName != "NIFTY" || !e.Protected {
		t.Errorf("protected entry corrupted after merges: %+v", e)
	}
	if e := m["99926009"]; e.DisplayName != "BANKNIFTY" || !e.Protected {
		t.Errorf("protected entry lost after merges: %+v", e)
	}
	if _, ok := m["2885"]; ok {
		t.Error("entry from earlier baseline survived a full replace")
	}
}

func TestMergeBaseline_DefaultsAndDedup(t *testing.T) {
	r := New()
	r.MergeBaseline([]model.WatchlistEntry{
		{Token: "101", DisplayName: ""},
		{Token: "102", DisplayName: "null"},
		{Token: "103", DisplayName: "undefined"},
		{Token: "104", DisplayName: "---"},
		{Token: "105", DisplayName: "FIRST"},
		{Token: "105", DisplayName: "SECOND"}, // duplicate: last one wins
		{Token: "null", DisplayName: "junk"},  // invalid token dropped
		{Token: "", DisplayName: "junk"},
	})

	m := entryMap(r)
	for _, token := range []string{"101", "102", "103", "104"} {
		want := PlaceholderPrefix + token
		if m[token].DisplayName != want {
			t.Errorf("token %s: name %q, want placeholder %q", token, m[token].DisplayName, want)
		}
	}
	if m["105"].DisplayName != "SECOND" {
		t.Errorf("duplicate token: name %q, want SECOND", m["105"].DisplayName)
	}
	if _, ok := m["null"]; ok {
		t.Error("sentinel token was not dropped")
	}
	if _, ok := m[""]; ok {
		t.Error("empty token was not dropped")
	}
}

func TestAdd_ResolvesNameAndSetsPendingSync(t *testing.T) {
	r := New()
	e := r.Add(model.InstrumentMetadata{Token: "55", Name: "NIFTY", Symbol: "NIFTY15MAR2421500CE", Expiry: "15MAR24", Strike: 21500})

	if e.DisplayName != "NIFTY 15 MAR 21500 CALL" {
		t.Errorf("resolved name = %q", e.DisplayName)
	}
	if !e.PendingSync {
		t.Error("added entry should be pending sync until persistence confirms")
	}

	r.MarkSynced("55")
	if entryMap(r)["55"].PendingSync {
		t.Error("MarkSynced did not clear the flag")
	}
}

func TestAdd_EmptyMetadataFallsBackToPlaceholder(t *testing.T) {
	r := New()
	e := r.Add(model.InstrumentMetadata{Token: "77"})
	if e.DisplayName != "Token 77" {
		t.Errorf("name = %q, want placeholder", e.DisplayName)
	}
}

func TestRemove(t *testing.T) {
	r := New()
	r.Add(model.InstrumentMetadata{Token: "55", Symbol: "SBIN-EQ"})

	if !r.Remove("55") {
		t.Error("removing a normal entry should succeed")
	}
	if r.Has("55") {
		t.Error("entry still present after Remove")
	}

	if r.Remove("99926000") {
		t.Error("removing a protected entry must be rejected")
	}
	if !r.Has("99926000") {
		t.Error("protected entry vanished")
	}

	if r.Remove("does-not-exist") {
		t.Error("removing an absent entry should report false")
	}
}

func TestUpgradeNameIfPlaceholder(t *testing.T) {
	r := New()
	r.MergeBaseline([]model.WatchlistEntry{{Token: "42"}}) // placeholder name

	meta := model.InstrumentMetadata{Token: "42", Name: "NIFTY", Symbol: "NIFTY15MAR24FUT", Expiry: "15MAR24"}
	if !r.UpgradeNameIfPlaceholder("42", meta) {
		t.Fatal("expected placeholder to upgrade")
	}
	if got := r.Name("42"); got != "NIFTY 15 MAR FUT" {
		t.Errorf("upgraded name = %q", got)
	}

	// Monotonic: once resolved, no metadata changes it again.
	other := model.InstrumentMetadata{Token: "42", Name: "OTHER", Symbol: "OTHER-EQ"}
	if r.UpgradeNameIfPlaceholder("42", other) {
		t.Error("resolved name must never regress")
	}
	if got := r.Name("42"); got != "NIFTY 15 MAR FUT" {
		t.Errorf("name changed after upgrade: %q", got)
	}

	// Empty candidate metadata never replaces a placeholder.
	r.MergeBaseline([]model.WatchlistEntry{{Token: "43"}})
	if r.UpgradeNameIfPlaceholder("43", model.InstrumentMetadata{Token: "43"}) {
		t.Error("empty resolved name must not upgrade")
	}

	// Protected entries are never touched.
	if r.UpgradeNameIfPlaceholder("99926000", meta) {
		t.Error("protected names must never change")
	}

	// Unknown tokens are a no-op.
	if r.UpgradeNameIfPlaceholder("nope", meta) {
		t.Error("unknown token should not upgrade")
	}
}
