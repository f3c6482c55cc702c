// Package control exposes the local HTTP surface the dashboard UI drives:
// the latest snapshot, watchlist add/remove, symbol search, order placement
// and trade history. It is a localhost control plane, not the backend API.
package control

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jeso2410/papertrade-frontend/internal/coordinator"
	"github.com/jeso2410/papertrade-frontend/internal/model"
)

// Dispatcher queues events for the sync coordinator.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev coordinator.Event) error
}

// Backend is the slice of the API client the control surface needs.
type Backend interface {
	model.SymbolSearcher
	model.TradeService
}

// Journal is the optional local order journal.
type Journal interface {
	RecordOrder(req model.OrderRequest, res model.OrderResult) error
	CachedTrades() ([]model.TradeRecord, error)
}

// Config configures the control server.
type Config struct {
	Addr   string // e.g. ":8085"
	UserID string
}

// Server serves the control API. SetSnapshot feeds it the coordinator's
// latest emission so GET /api/snapshot never blocks on the event loop.
type Server struct {
	cfg     Config
	disp    Dispatcher
	backend Backend
	journal Journal // nil disables order journaling and the cache fallback

	srv *http.Server

	mu       sync.RWMutex
	snap     model.Snapshot
	haveSnap bool
}

// NewServer creates the control server. journal may be nil.
func NewServer(cfg Config, disp Dispatcher, backend Backend, journal Journal) *Server {
	s := &Server{
		cfg:     cfg,
		disp:    disp,
		backend: backend,
		journal: journal,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/watchlist/add", s.handleAdd)
	mux.HandleFunc("/api/watchlist/remove", s.handleRemove)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/orders", s.handleOrder)
	mux.HandleFunc("/api/trades", s.handleTrades)

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route mux for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// SetSnapshot stores the latest snapshot, replacing any previous one.
func (s *Server) SetSnapshot(snap model.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.haveSnap = true
	s.mu.Unlock()
}

// Start serves in a background goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("control server listening", "addr", s.cfg.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("control server error", "error", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) {
	if err := s.srv.Shutdown(ctx); err != nil {
		slog.Warn("control server shutdown", "error", err)
	}
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": msg})
}

// handleSnapshot returns the freshest emitted snapshot, or 204 before the
// first emission.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	s.mu.RLock()
	snap, ok := s.snap, s.haveSnap
	s.mu.RUnlock()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	q := r.URL.Query()
	token := q.Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token required")
		return
	}
	meta := model.InstrumentMetadata{
		Token:    token,
		Symbol:   q.Get("symbol"),
		Name:     q.Get("name"),
		Exchange: q.Get("exchange"),
		Expiry:   q.Get("expiry"),
	}
	if v := q.Get("strike"); v != "" {
		if strike, err := strconv.ParseFloat(v, 64); err == nil {
			meta.Strike = strike
		}
	}

	if err := s.disp.Dispatch(r.Context(), coordinator.EntryAdded{Meta: meta}); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token required")
		return
	}
	if err := s.disp.Dispatch(r.Context(), coordinator.EntryRemoved{Token: token}); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusOK, []model.InstrumentMetadata{})
		return
	}
	results, err := s.backend.SearchSymbol(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// handleOrder forwards a paper order to the backend and journals the
// verdict locally when a journal is configured.
func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req model.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.UserID = s.cfg.UserID
	if req.Token == "" || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "token and positive quantity required")
		return
	}

	res, err := s.backend.PlaceOrder(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if s.journal != nil {
		if jerr := s.journal.RecordOrder(req, res); jerr != nil {
			slog.Warn("order journal write failed", "token", req.Token, "error", jerr)
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// handleTrades returns backend trade history, falling back to the local
// cache when the backend is unreachable.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	trades, err := s.backend.FetchTradeHistory(r.Context(), s.cfg.UserID)
	if err != nil {
		if s.journal != nil {
			if cached, cerr := s.journal.CachedTrades(); cerr == nil {
				writeJSON(w, http.StatusOK, map[string]any{"status": "cached", "data": cached})
				return
			}
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": trades})
}
