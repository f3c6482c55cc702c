package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeso2410/papertrade-frontend/internal/model"
)

func TestLoadBaseline_DerivesFieldsAndTotal(t *testing.T) {
	e := New()
	e.LoadBaseline([]model.Position{
		{Token: "1", Symbol: "SBIN-EQ", Quantity: 10, AvgPrice: 100, LastPrice: 105},
		{Token: "2", Symbol: "RELIANCE-EQ", Quantity: 2, AvgPrice: 2900, LastPrice: 2890},
	})

	snap := e.Snapshot()
	require.Len(t, snap.Positions, 2)

	p := snap.Positions[0]
	assert.Equal(t, 1050.0, p.CurrentValue)
	assert.Equal(t, 50.0, p.PnL)
	assert.InDelta(t, 5.0, p.PnLPercent, 1e-9)

	assert.InDelta(t, 50.0+(-20.0), snap.TotalPnL, 1e-9)
}

func TestOnTick_RecomputesPosition(t *testing.T) {
	e := New()
	e.LoadBaseline([]model.Position{
		{Token: "1", Symbol: "SBIN-EQ", Quantity: 10, AvgPrice: 100, LastPrice: 100},
	})

	changed := e.OnTick("1", model.Tick{Token: "1", LastPrice: 110})
	require.True(t, changed)

	snap := e.Snapshot()
	p := snap.Positions[0]
	assert.Equal(t, 1100.0, p.CurrentValue)
	assert.Equal(t, 100.0, p.PnL)
	assert.InDelta(t, 10.0, p.PnLPercent, 1e-9)
	assert.InDelta(t, 100.0, snap.TotalPnL, 1e-9)
}

func TestOnTick_Idempotent(t *testing.T) {
	e := New()
	e.LoadBaseline([]model.Position{
		{Token: "X", Quantity: 10, AvgPrice: 100},
	})

	require.True(t, e.OnTick("X", model.Tick{Token: "X", LastPrice: 100}))
	first := e.Snapshot()

	// Same price again: no state change, no recompute observable.
	assert.False(t, e.OnTick("X", model.Tick{Token: "X", LastPrice: 100}))
	assert.Equal(t, first, e.Snapshot())
}

func TestOnTick_IgnoresUnheldAndInvalid(t *testing.T) {
	e := New()
	e.LoadBaseline([]model.Position{
		{Token: "1", Quantity: 5, AvgPrice: 50, LastPrice: 60},
	})
	before := e.Snapshot()

	assert.False(t, e.OnTick("unheld", model.Tick{Token: "unheld", LastPrice: 500}))
	assert.False(t, e.OnTick("1", model.Tick{Token: "1", LastPrice: 0}))
	assert.False(t, e.OnTick("1", model.Tick{Token: "1", LastPrice: -3}))

	assert.Equal(t, before, e.Snapshot(), "invalid ticks must not corrupt valuation")
}

func TestOnTick_ZeroAvgPriceYieldsZeroPercent(t *testing.T) {
	e := New()
	e.LoadBaseline([]model.Position{
		{Token: "5", Quantity: 5, AvgPrice: 0},
	})

	require.True(t, e.OnTick("5", model.Tick{Token: "5", LastPrice: 50}))

	p := e.Snapshot().Positions[0]
	assert.Equal(t, 250.0, p.CurrentValue)
	assert.Equal(t, 250.0, p.PnL)
	assert.Equal(t, 0.0, p.PnLPercent, "zero avg price must not divide")
}

func TestTotalPnL_FreshSumAfterEachChange(t *testing.T) {
	e := New()
	e.LoadBaseline([]model.Position{
		{Token: "a", Quantity: 10, AvgPrice: 100, LastPrice: 105}, // pnl 50
		{Token: "b", Quantity: 2, AvgPrice: 200, LastPrice: 190},  // pnl -20
	})
	assert.InDelta(t, 30.0, e.TotalPnL(), 1e-9)

	// Second position moves to +10 pnl → total 60.
	require.True(t, e.OnTick("b", model.Tick{Token: "b", LastPrice: 205}))
	assert.InDelta(t, 60.0, e.TotalPnL(), 1e-9)
}

func TestLoadBaseline_FullReplace(t *testing.T) {
	e := New()
	e.LoadBaseline([]model.Position{{Token: "old", Quantity: 1, AvgPrice: 10, LastPrice: 12}})
	e.LoadBaseline([]model.Position{{Token: "new", Quantity: 1, AvgPrice: 10, LastPrice: 9}})

	assert.False(t, e.Has("old"), "baseline load is a full replace, not incremental")
	assert.True(t, e.Has("new"))
	assert.InDelta(t, -1.0, e.TotalPnL(), 1e-9)
}
