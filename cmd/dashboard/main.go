package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeso2410/papertrade-frontend/config"
	"github.com/jeso2410/papertrade-frontend/internal/apiclient"
	"github.com/jeso2410/papertrade-frontend/internal/control"
	"github.com/jeso2410/papertrade-frontend/internal/coordinator"
	"github.com/jeso2410/papertrade-frontend/internal/logger"
	"github.com/jeso2410/papertrade-frontend/internal/metrics"
	"github.com/jeso2410/papertrade-frontend/internal/model"
	redisstore "github.com/jeso2410/papertrade-frontend/internal/store/redis"
	sqlitestore "github.com/jeso2410/papertrade-frontend/internal/store/sqlite"
	"github.com/jeso2410/papertrade-frontend/internal/stream"
)

func main() {
	cfg := config.Load()
	logger.Init("dashboard", logger.ParseLevel(cfg.LogLevel))
	slog.Info("starting", "user_id", cfg.UserID, "ws_id", cfg.SessionID)

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Backend API client ----
	api := apiclient.New(apiclient.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
	}, prom)

	// ---- Optional local order journal ----
	var journal *sqlitestore.Journal
	if cfg.SQLitePath != "" {
		j, err := sqlitestore.NewJournal(sqlitestore.JournalConfig{DBPath: cfg.SQLitePath}, prom)
		if err != nil {
			slog.Error("sqlite init failed, continuing without journal", "error", err)
		} else {
			journal = j
			defer journal.Close()
			health.SetJournalOK(true)
		}
	}

	// ---- Optional Redis mirror ----
	var publisher *redisstore.Publisher
	if cfg.RedisAddr != "" {
		p, err := redisstore.NewPublisher(ctx, redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}, prom)
		if err != nil {
			slog.Error("redis init failed, continuing without mirror", "error", err)
		} else {
			publisher = p
			defer publisher.Close()
			health.SetRedisConnected(true)
		}
	}

	// ---- Sync coordinator ----
	coord := coordinator.New(coordinator.Config{
		UserID:    cfg.UserID,
		SessionID: cfg.SessionID,
	}, api, prom)
	go coord.Run(ctx)

	// ---- Local control API ----
	var ctlJournal control.Journal
	if journal != nil {
		ctlJournal = journal
	}
	ctl := control.NewServer(control.Config{
		Addr:   cfg.ControlAddr,
		UserID: cfg.UserID,
	}, coord, api, ctlJournal)
	ctl.Start()

	// ---- Baseline loading ----
	loadBaseline := func() {
		fetchCtx, fetchCancel := context.WithTimeout(ctx, cfg.APITimeout)
		defer fetchCancel()

		entries, err := api.FetchWatchlist(fetchCtx, cfg.UserID)
		if err != nil {
			slog.Warn("watchlist fetch failed", "error", err)
			entries = nil
		}
		positions, _, err := api.FetchPositions(fetchCtx, cfg.UserID)
		if err != nil {
			slog.Warn("positions fetch failed", "error", err)
			positions = nil
		}

		coord.Dispatch(ctx, coordinator.BaselineLoaded{
			Watchlist: entries,
			Positions: positions,
		})
		health.SetBaselineLoaded(true)

		if journal != nil {
			trades, err := api.FetchTradeHistory(fetchCtx, cfg.UserID)
			if err != nil {
				slog.Warn("trade history fetch failed", "error", err)
			} else if err := journal.CacheTrades(trades); err != nil {
				slog.Warn("trade cache write failed", "error", err)
			}
		}
	}

	go func() {
		loadBaseline()
		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				loadBaseline()
			}
		}
	}()

	// ---- Market stream ----
	sc := stream.New(stream.Config{URL: cfg.StreamURL()})
	sc.OnTick = func(tick model.Tick, meta model.InstrumentMetadata) {
		health.SetLastTickTime(time.Now())
		coord.TryDispatch(coordinator.TickReceived{Tick: tick, Meta: meta})
		if publisher != nil {
			publisher.PublishTick(tick)
		}
	}
	var connects int
	sc.OnStatus = func(status model.ConnStatus) {
		if status == model.StatusConnecting {
			connects++
			if connects > 1 {
				prom.WSReconnects.Inc()
			}
		}
		health.SetStreamConnected(status == model.StatusOnline)
		coord.TryDispatch(coordinator.StatusChanged{Status: status})
	}
	sc.OnDropped = func(err error) {
		slog.Debug("dropped malformed tick", "error", err)
		prom.TicksDropped.Inc()
	}
	go func() {
		if err := sc.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("stream terminated", "error", err)
		}
	}()

	// ---- Snapshot consumer ----
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-coord.Snapshots():
				slog.Debug("snapshot",
					"watchlist", len(snap.Watchlist),
					"positions", len(snap.Portfolio.Positions),
					"total_pnl", snap.Portfolio.TotalPnL,
					"status", string(snap.Status))
				ctl.SetSnapshot(snap)
				if publisher != nil {
					publisher.PublishSnapshot(snap)
				}
			}
		}
	}()

	sig := <-sigCh
	slog.Info("shutting down", "signal", sig.String())
	cancel()
	sc.Close()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	ctl.Stop(stopCtx)
	metricsSrv.Stop(stopCtx)
}
