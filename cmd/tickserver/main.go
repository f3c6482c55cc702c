// cmd/tickserver — Demo WebSocket tick server.
// Broadcasts simulated market ticks for exercising the dashboard without a
// live backend session.
//
// Tick JSON matches the live feed shape:
//
//	{"token":"99926000","ltp":25672.4,"change_diff":12.4,"percent_change":0.048,"symbol":"NIFTY"}
//
// change_diff and percent_change are computed against the session open.
//
// Config (env vars):
//
//	TICK_SERVER_ADDR  — listen address (default: ":9001")
//	TICK_TOKENS       — comma-separated TOKEN:SYMBOL pairs (default: "99926000:NIFTY,99926009:BANKNIFTY")
//	TICK_INTERVAL_MS  — broadcast interval milliseconds (default: "250")
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// tickMsg is the wire shape the dashboard's stream client parses.
type tickMsg struct {
	Token         string  `json:"token"`
	LTP           float64 `json:"ltp"`
	ChangeAbs     float64 `json:"change_diff"`
	ChangePercent float64 `json:"percent_change"`
	Symbol        string  `json:"symbol,omitempty"`
}

// instrument holds per-symbol simulation state.
type instrument struct {
	Token  string
	Symbol string
	Open   float64 // session open, change reference
	Price  float64 // current simulated price
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *hub) register(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, 256)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default: // slow client — drop tick
		}
	}
}

// ─── WebSocket handler ────────────────────────────────────────────────────────

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func wsHandler(h *hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[tickserver] upgrade error: %v", err)
			return
		}
		log.Printf("[tickserver] client connected: %s (session %s)", r.RemoteAddr, r.URL.Path)

		ch := h.register(conn)
		defer func() {
			h.unregister(conn)
			conn.Close()
			log.Printf("[tickserver] client disconnected: %s", r.RemoteAddr)
		}()

		// Drain pings/close frames so control handlers run.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for msg := range ch {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// ─── Tick generator ──────────────────────────────────────────────────────────

// walkPrice applies a random walk of up to ±0.1% per tick.
func walkPrice(price float64) float64 {
	pct := (rand.Float64()*0.2 - 0.1) / 100.0
	next := price * (1 + pct)
	if next < 0.05 {
		next = 0.05
	}
	return next
}

func runGenerator(h *hub, instruments []instrument, intervalMs int) {
	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		for i := range instruments {
			ins := &instruments[i]
			ins.Price = walkPrice(ins.Price)

			change := ins.Price - ins.Open
			msg := tickMsg{
				Token:         ins.Token,
				LTP:           round2(ins.Price),
				ChangeAbs:     round2(change),
				ChangePercent: round2(change / ins.Open * 100),
			}
			// Symbol rides along on roughly every tenth tick, like the
			// live feed's sparse metadata.
			if rand.Intn(10) == 0 {
				msg.Symbol = ins.Symbol
			}
			b, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			h.broadcast(b)
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ─── main ─────────────────────────────────────────────────────────────────────

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[tickserver] starting demo tick server...")

	addr := envOrDefault("TICK_SERVER_ADDR", ":9001")
	tokensEnv := envOrDefault("TICK_TOKENS", "99926000:NIFTY,99926009:BANKNIFTY")
	intervalMs := envIntOrDefault("TICK_INTERVAL_MS", 250)

	instruments := parseInstruments(tokensEnv)
	if len(instruments) == 0 {
		log.Fatalf("[tickserver] no instruments configured via TICK_TOKENS")
	}
	log.Printf("[tickserver] instruments: %+v", instruments)
	log.Printf("[tickserver] broadcast interval: %dms", intervalMs)

	h := newHub()
	go runGenerator(h, instruments, intervalMs)

	// Any session id is accepted; all sessions see the same feed.
	http.HandleFunc("/ws/market/", wsHandler(h))
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"status":"ok","service":"tickserver"}`)
	})

	log.Printf("[tickserver] listening on %s (WebSocket: ws://localhost%s/ws/market/{ws_id})", addr, addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("[tickserver] server error: %v", err)
	}
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func parseInstruments(s string) []instrument {
	// Session-open reference prices in rupees
	defaultOpens := map[string]float64{
		"99926000": 25660.00, // NIFTY 50
		"99926009": 57210.00, // BANKNIFTY
		"2885":     2960.50,  // RELIANCE
		"11536":    3495.75,  // TCS
	}

	var result []instrument
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		seg := strings.SplitN(part, ":", 2)
		if len(seg) != 2 {
			log.Printf("[tickserver] skipping invalid token spec: %q", part)
			continue
		}
		token, symbol := strings.TrimSpace(seg[0]), strings.TrimSpace(seg[1])
		open := defaultOpens[token]
		if open == 0 {
			open = 1000.00
		}
		result = append(result, instrument{
			Token:  token,
			Symbol: symbol,
			Open:   open,
			Price:  open,
		})
	}
	return result
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
