// Package valuation derives portfolio positions from the position baseline
// plus live ticks. Quantity and average price come from the backend; this
// engine owns everything computed from them.
package valuation

import "github.com/jeso2410/papertrade-frontend/internal/model"

// Engine maps token → position and caches the aggregate P&L. Single-writer
// ownership: only the coordinator mutates it.
type Engine struct {
	positions map[string]*model.Position
	order     []string
	totalPnL  float64
}

// New returns an empty Engine.
func New() *Engine {
	return &Engine{positions: make(map[string]*model.Position)}
}

// LoadBaseline fully replaces the position set from the authoritative
// backend response, recomputes every position's derived fields from its own
// last known price, and refreshes the aggregate P&L.
func (e *Engine) LoadBaseline(positions []model.Position) {
	e.positions = make(map[string]*model.Position, len(positions))
	e.order = e.order[:0]

	for i := range positions {
		p := positions[i]
		if p.Token == "" {
			continue
		}
		p.Recompute()
		if _, seen := e.positions[p.Token]; !seen {
			e.order = append(e.order, p.Token)
		}
		e.positions[p.Token] = &p
	}
	e.totalPnL = e.sumPnL()
}

// OnTick refreshes the position backing the ticked instrument. It reports
// whether any state changed; ticks for unheld instruments, non-positive
// prices, and prices equal to the current one are all no-ops, so repeated
// identical ticks cannot trigger redundant recomputes or emissions.
func (e *Engine) OnTick(token string, tick model.Tick) bool {
	p, held := e.positions[token]
	if !held {
		return false
	}
	if tick.LastPrice <= 0 {
		return false
	}
	if tick.LastPrice == p.LastPrice {
		return false
	}

	p.LastPrice = tick.LastPrice
	p.Recompute()

	// Always a fresh sum. Incrementally adjusting the cached total would
	// compound float rounding across thousands of partial updates.
	e.totalPnL = e.sumPnL()
	return true
}

// TotalPnL returns the aggregate P&L across all positions.
func (e *Engine) TotalPnL() float64 {
	return e.totalPnL
}

// Has reports whether a position is held for the token.
func (e *Engine) Has(token string) bool {
	_, ok := e.positions[token]
	return ok
}

// Snapshot returns a render-ready copy of the portfolio.
func (e *Engine) Snapshot() model.PortfolioSnapshot {
	out := model.PortfolioSnapshot{
		Positions: make([]model.Position, 0, len(e.order)),
		TotalPnL:  e.totalPnL,
	}
	for _, token := range e.order {
		if p, ok := e.positions[token]; ok {
			out.Positions = append(out.Positions, *p)
		}
	}
	return out
}

func (e *Engine) sumPnL() float64 {
	var total float64
	for _, p := range e.positions {
		total += p.PnL
	}
	return total
}
