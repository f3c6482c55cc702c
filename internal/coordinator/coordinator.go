// Package coordinator sequences the registry, tick store, and valuation
// engine in response to external events and exposes merged, render-ready
// snapshots.
//
// One coordinator goroutine owns all three stores — there are no other
// writers — so one tick is processed to completion before the next, and
// per-instrument arrival order is preserved. Persistence and baseline
// fetches never run inside the event loop; their completions come back as
// events of their own.
package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/jeso2410/papertrade-frontend/internal/logger"
	"github.com/jeso2410/papertrade-frontend/internal/metrics"
	"github.com/jeso2410/papertrade-frontend/internal/model"
	"github.com/jeso2410/papertrade-frontend/internal/tickstore"
	"github.com/jeso2410/papertrade-frontend/internal/valuation"
	"github.com/jeso2410/papertrade-frontend/internal/watchlist"
)

const (
	defaultEventBuffer    = 4096
	defaultSnapshotBuffer = 64
	defaultPersistTimeout = 10 * time.Second
)

// Config holds coordinator settings.
type Config struct {
	UserID    string
	SessionID string // ws_id of the stream session, sent with persistence calls

	EventBuffer    int
	SnapshotBuffer int
	PersistTimeout time.Duration
}

// Coordinator owns the per-session client state.
type Coordinator struct {
	cfg      Config
	registry *watchlist.Registry
	ticks    *tickstore.Store
	engine   *valuation.Engine
	svc      model.WatchlistService // nil disables persistence scheduling
	met      *metrics.Metrics       // nil disables instrumentation

	status    model.ConnStatus
	events    chan Event
	snapshots chan model.Snapshot
}

// New creates a Coordinator with freshly seeded stores.
func New(cfg Config, svc model.WatchlistService, met *metrics.Metrics) *Coordinator {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}
	if cfg.SnapshotBuffer <= 0 {
		cfg.SnapshotBuffer = defaultSnapshotBuffer
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = defaultPersistTimeout
	}

	return &Coordinator{
		cfg:       cfg,
		registry:  watchlist.New(),
		ticks:     tickstore.New(),
		engine:    valuation.New(),
		svc:       svc,
		met:       met,
		status:    model.StatusConnecting,
		events:    make(chan Event, cfg.EventBuffer),
		snapshots: make(chan model.Snapshot, cfg.SnapshotBuffer),
	}
}

// Snapshots returns the channel of emitted render snapshots. When the
// consumer lags, the oldest pending snapshot is dropped so the freshest
// state always gets through.
func (c *Coordinator) Snapshots() <-chan model.Snapshot {
	return c.snapshots
}

// Dispatch queues an event, blocking until accepted or ctx is done.
func (c *Coordinator) Dispatch(ctx context.Context, ev Event) error {
	select {
	case c.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryDispatch queues an event without blocking. Used on the hot tick path:
// a full event buffer means the tick is dropped, not the stream stalled.
func (c *Coordinator) TryDispatch(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	default:
		if c.met != nil {
			c.met.TicksDropped.Inc()
		}
		return false
	}
}

// Run processes events until ctx is cancelled. Events queued after
// cancellation are never applied.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			snap, emit := c.Apply(ctx, ev)
			if emit {
				c.emit(snap)
			}
		}
	}
}

// Apply reduces one event into the stores and returns the new snapshot
// plus whether anything observable changed. Exported so tests can drive
// the reducer synchronously.
func (c *Coordinator) Apply(ctx context.Context, ev Event) (model.Snapshot, bool) {
	switch e := ev.(type) {
	case TickReceived:
		return c.applyTick(ctx, e)

	case BaselineLoaded:
		c.registry.MergeBaseline(e.Watchlist)
		c.engine.LoadBaseline(e.Positions)
		slog.Info("baseline loaded",
			slog.Int("watchlist", len(e.Watchlist)),
			slog.Int("positions", len(e.Positions)))
		return c.snapshot(), true

	case EntryAdded:
		entry := c.registry.Add(e.Meta)
		if entry.PendingSync {
			c.schedulePersist(ctx, "add", entry.Token)
		}
		slog.Info("watchlist entry added",
			slog.String("token", entry.Token),
			slog.String("name", entry.DisplayName))
		return c.snapshot(), true

	case EntryRemoved:
		if !c.registry.Remove(e.Token) {
			slog.Warn("watchlist remove rejected", slog.String("token", e.Token))
			return model.Snapshot{}, false
		}
		c.schedulePersist(ctx, "remove", e.Token)
		return c.snapshot(), true

	case StatusChanged:
		if e.Status == c.status {
			return model.Snapshot{}, false
		}
		c.status = e.Status
		slog.Info("stream status changed", slog.String("status", string(e.Status)))
		return c.snapshot(), true

	case persistResult:
		return c.applyPersistResult(e)
	}

	slog.Warn("unknown event", slog.String("event", ev.eventName()))
	return model.Snapshot{}, false
}

func (c *Coordinator) applyTick(ctx context.Context, e TickReceived) (model.Snapshot, bool) {
	if c.met != nil {
		c.met.TicksTotal.Inc()
	}

	token := c.ticks.Apply(e.Tick)
	upgraded := c.registry.UpgradeNameIfPlaceholder(token, e.Meta)
	revalued := c.engine.OnTick(token, e.Tick)

	if c.met != nil {
		if upgraded {
			c.met.NameUpgrades.Inc()
		}
		if revalued {
			c.met.ValuationRecomputes.Inc()
		}
	}

	// A tick is observable when it moved a held position, upgraded a
	// placeholder name, or repriced a watchlisted card. Anything else
	// changes nothing a renderer could see.
	if !upgraded && !revalued && !c.registry.Has(token) {
		if c.met != nil {
			c.met.SnapshotsSkipped.Inc()
		}
		return model.Snapshot{}, false
	}

	tctx := logger.WithTraceID(ctx, logger.GenerateTraceID(token, time.Now()))
	args := append(logger.LogWithTrace(tctx),
		slog.String("token", token),
		slog.Float64("ltp", e.Tick.LastPrice),
		slog.Bool("name_upgraded", upgraded),
		slog.Bool("revalued", revalued))
	slog.Debug("tick applied", args...)

	return c.snapshot(), true
}

func (c *Coordinator) applyPersistResult(e persistResult) (model.Snapshot, bool) {
	if e.Err != nil {
		// Accepted inconsistency window: local state stays, the entry
		// keeps PendingSync set, and the failure is only reported.
		if c.met != nil {
			c.met.PersistFailures.WithLabelValues(e.Op).Inc()
		}
		slog.Warn("watchlist persistence failed",
			slog.String("op", e.Op),
			slog.String("token", e.Token),
			slog.Any("error", e.Err))
		return model.Snapshot{}, false
	}

	if e.Op == "add" && c.registry.Has(e.Token) {
		c.registry.MarkSynced(e.Token)
		return c.snapshot(), true
	}
	return model.Snapshot{}, false
}

// schedulePersist fires the backend call off the event loop. The completion
// is fed back as a persistResult event; a cancelled ctx discards it.
func (c *Coordinator) schedulePersist(ctx context.Context, op, token string) {
	if c.svc == nil {
		return
	}
	go func() {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.PersistTimeout)
		defer cancel()

		var err error
		if op == "add" {
			err = c.svc.AddToWatchlist(callCtx, c.cfg.UserID, c.cfg.SessionID, token)
		} else {
			err = c.svc.RemoveFromWatchlist(callCtx, c.cfg.UserID, c.cfg.SessionID, token)
		}

		select {
		case c.events <- persistResult{Op: op, Token: token, Err: err}:
		case <-ctx.Done():
		}
	}()
}

// snapshot assembles a fresh immutable view; nothing in it aliases the
// coordinator's maps.
func (c *Coordinator) snapshot() model.Snapshot {
	return model.Snapshot{
		Watchlist: c.registry.Entries(),
		Ticks:     c.ticks.All(),
		Portfolio: c.engine.Snapshot(),
		Status:    c.status,
	}
}

func (c *Coordinator) emit(snap model.Snapshot) {
	if c.met != nil {
		c.met.SnapshotsTotal.Inc()
	}
	for {
		select {
		case c.snapshots <- snap:
			return
		default:
			// Consumer is behind: shed the oldest snapshot so the
			// freshest one lands.
			select {
			case <-c.snapshots:
			default:
			}
		}
	}
}
