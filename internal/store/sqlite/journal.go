package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jeso2410/papertrade-frontend/internal/metrics"
	"github.com/jeso2410/papertrade-frontend/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// JournalConfig configures the local order journal.
type JournalConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/dashboard.db"
}

// Journal is a single-writer SQLite store. It records every order placed
// through this client and caches fetched trade history so the last known
// state is reviewable while the backend is unreachable.
type Journal struct {
	mu  sync.Mutex
	db  *sql.DB
	met *metrics.Metrics
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// NewJournal opens the database in WAL mode and creates the schema. met may
// be nil.
func NewJournal(cfg JournalConfig, met *metrics.Metrics) (*Journal, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	slog.Info("journal opened", "component", "sqlite", "path", cfg.DBPath)
	return &Journal{db: db, met: met}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS order_log (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     TEXT    NOT NULL,
			token       TEXT    NOT NULL,
			symbol_name TEXT    NOT NULL,
			order_type  TEXT    NOT NULL,
			quantity    INTEGER NOT NULL,
			status      TEXT    NOT NULL,
			message     TEXT,
			placed_at   INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS trade_cache (
			symbol_name TEXT    NOT NULL,
			trade_type  TEXT    NOT NULL,
			quantity    INTEGER NOT NULL,
			buy_price   REAL    NOT NULL,
			sell_price  REAL    NOT NULL,
			pnl         REAL    NOT NULL,
			brokerage   REAL    NOT NULL,
			net_pnl     REAL    NOT NULL,
			created_at  INTEGER NOT NULL,
			PRIMARY KEY (symbol_name, trade_type, created_at)
		);
	`)
	return err
}

// RecordOrder appends one placed order and its backend verdict.
func (j *Journal) RecordOrder(req model.OrderRequest, res model.OrderResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT INTO order_log (user_id, token, symbol_name, order_type, quantity, status, message, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		req.UserID, req.Token, req.SymbolName, req.OrderType, req.Quantity,
		res.Status, res.Message, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("record order %s: %w", req.Token, err)
	}
	if j.met != nil {
		j.met.JournalWrites.Inc()
	}
	return nil
}

// CacheTrades replaces the trade-history cache with a freshly fetched set.
// The cache holds whole fetches, not increments, so a full swap keeps it
// consistent with what the backend last reported.
func (j *Journal) CacheTrades(trades []model.TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("cache trades begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM trade_cache`); err != nil {
		return fmt.Errorf("cache trades clear: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO trade_cache
			(symbol_name, trade_type, quantity, buy_price, sell_price, pnl, brokerage, net_pnl, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cache trades prepare: %w", err)
	}
	defer stmt.Close()

	for _, tr := range trades {
		if _, err := stmt.Exec(
			tr.SymbolName, tr.TradeType, tr.Quantity,
			tr.BuyPrice, tr.SellPrice, tr.GrossPnL, tr.Brokerage, tr.NetPnL,
			tr.CreatedAt.Unix()); err != nil {
			return fmt.Errorf("cache trade %s: %w", tr.SymbolName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache trades commit: %w", err)
	}
	if j.met != nil {
		j.met.JournalWrites.Inc()
	}
	return nil
}

// CachedTrades returns the locally cached trade history, newest first.
func (j *Journal) CachedTrades() ([]model.TradeRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(`
		SELECT symbol_name, trade_type, quantity, buy_price, sell_price, pnl, brokerage, net_pnl, created_at
		FROM trade_cache ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("cached trades query: %w", err)
	}
	defer rows.Close()

	var out []model.TradeRecord
	for rows.Next() {
		var tr model.TradeRecord
		var createdAt int64
		if err := rows.Scan(
			&tr.SymbolName, &tr.TradeType, &tr.Quantity,
			&tr.BuyPrice, &tr.SellPrice, &tr.GrossPnL, &tr.Brokerage, &tr.NetPnL,
			&createdAt); err != nil {
			return nil, fmt.Errorf("cached trades scan: %w", err)
		}
		tr.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, tr)
	}
	return out, rows.Err()
}

// OrderCount returns how many orders have been journaled.
func (j *Journal) OrderCount() (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var n int
	err := j.db.QueryRow(`SELECT COUNT(*) FROM order_log`).Scan(&n)
	return n, err
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

var _ model.OrderJournal = (*Journal)(nil)
