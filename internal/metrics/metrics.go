package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the dashboard client.
type Metrics struct {
	TicksTotal          prometheus.Counter
	TicksDropped        prometheus.Counter
	SnapshotsTotal      prometheus.Counter
	SnapshotsSkipped    prometheus.Counter
	NameUpgrades        prometheus.Counter
	ValuationRecomputes prometheus.Counter
	WSReconnects        prometheus.Counter
	PersistFailures     *prometheus.CounterVec   // labels: op=add|remove
	APIRequestDur       *prometheus.HistogramVec // labels: route
	RedisPublishDrops   prometheus.Counter
	JournalWrites       prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_ticks_total",
			Help: "Total ticks received from the market stream",
		}),
		TicksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_ticks_dropped_total",
			Help: "Malformed or undeliverable ticks dropped",
		}),
		SnapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_snapshots_total",
			Help: "Render snapshots emitted",
		}),
		SnapshotsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_snapshots_skipped_total",
			Help: "Ticks processed without an observable change",
		}),
		NameUpgrades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_name_upgrades_total",
			Help: "Placeholder watchlist names upgraded to resolved names",
		}),
		ValuationRecomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_valuation_recomputes_total",
			Help: "Position recomputes triggered by ticks",
		}),
		WSReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_ws_reconnects_total",
			Help: "Market stream reconnection attempts",
		}),
		PersistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_persist_failures_total",
			Help: "Watchlist persistence calls that failed (state kept optimistically)",
		}, []string{"op"}),
		APIRequestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_api_request_duration_seconds",
			Help:    "Backend API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		RedisPublishDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_redis_publish_drops_total",
			Help: "Ticks or snapshots dropped by the Redis publisher (buffer full or breaker open)",
		}),
		JournalWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_journal_writes_total",
			Help: "Rows written to the local order journal",
		}),
	}

	prometheus.MustRegister(
		m.TicksTotal,
		m.TicksDropped,
		m.SnapshotsTotal,
		m.SnapshotsSkipped,
		m.NameUpgrades,
		m.ValuationRecomputes,
		m.WSReconnects,
		m.PersistFailures,
		m.APIRequestDur,
		m.RedisPublishDrops,
		m.JournalWrites,
	)

	return m
}

// HealthStatus represents the client health.
type HealthStatus struct {
	mu sync.RWMutex

	StreamConnected bool      `json:"stream_connected"`
	LastTickTime    time.Time `json:"last_tick_time"`
	BaselineLoaded  bool      `json:"baseline_loaded"`
	RedisConnected  bool      `json:"redis_connected"`
	JournalOK       bool      `json:"journal_ok"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetStreamConnected(v bool) {
	h.mu.Lock()
	h.StreamConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastTickTime(t time.Time) {
	h.mu.Lock()
	h.LastTickTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetBaselineLoaded(v bool) {
	h.mu.Lock()
	h.BaselineLoaded = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetJournalOK(v bool) {
	h.mu.Lock()
	h.JournalOK = v
	h.mu.Unlock()
}

// ServeHTTP renders the /healthz JSON. The stream being down degrades the
// client but never kills it, so only a missing baseline reports unhealthy.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.StreamConnected {
		overallStatus = "degraded"
	}
	if !h.BaselineLoaded {
		overallStatus = "unhealthy"
		httpCode = http.StatusServiceUnavailable
	}

	tickAge := ""
	if !h.LastTickTime.IsZero() {
		tickAge = time.Since(h.LastTickTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string `json:"status"`
		Uptime          string `json:"uptime"`
		StreamConnected bool   `json:"stream_connected"`
		LastTickTime    string `json:"last_tick_time"`
		TickAge         string `json:"tick_age"`
		BaselineLoaded  bool   `json:"baseline_loaded"`
		RedisConnected  bool   `json:"redis_connected"`
		JournalOK       bool   `json:"journal_ok"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		StreamConnected: h.StreamConnected,
		LastTickTime:    h.LastTickTime.Format(time.RFC3339),
		TickAge:         tickAge,
		BaselineLoaded:  h.BaselineLoaded,
		RedisConnected:  h.RedisConnected,
		JournalOK:       h.JournalOK,
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
