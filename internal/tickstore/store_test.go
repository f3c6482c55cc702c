package tickstore

import (
	"testing"

	"github.com/jeso2410/papertrade-frontend/internal/model"
)

func TestApply_LastWriteWins(t *testing.T) {
	s := New()

	if got := s.Apply(model.Tick{Token: "2885", LastPrice: 2900}); got != "2885" {
		t.Errorf("Apply returned %q, want changed token", got)
	}
	s.Apply(model.Tick{Token: "2885", LastPrice: 2910.5, ChangeAbs: 10.5, ChangePercent: 0.36})

	tick, ok := s.Get("2885")
	if !ok {
		t.Fatal("tick missing after apply")
	}
	if tick.LastPrice != 2910.5 || tick.ChangeAbs != 10.5 {
		t.Errorf("expected latest tick to win, got %+v", tick)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	s := New()
	s.Apply(model.Tick{Token: "3045", LastPrice: 810})

	all := s.All()
	all["3045"] = model.Tick{Token: "3045", LastPrice: 0}

	if tick, _ := s.Get("3045"); tick.LastPrice != 810 {
		t.Error("mutating the returned map must not affect the store")
	}
}
