package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"fxsim/internal/domain"
	"fxsim/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Storage keys. The trade list and the balance live under independent keys
// so each can be read and written on its own.
const (
	tradesKey  = "simulated_trades"
	balanceKey = "simulated_balance"
)

// Store implements ports.LedgerStore as a two-row key-value table in SQLite.
type Store struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite store.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewStore creates a new SQLite-backed ledger store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite store")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/fxsim.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from a
	// single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, logger: cfg.Logger}
	if err := s.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	cfg.Logger.Info(context.Background(), "SQLite ledger store ready", map[string]interface{}{"path": dbPath})
	return s, nil
}

func (s *Store) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS ledger_state (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		s.logger.Info(context.Background(), "Closing SQLite ledger store")
		return s.db.Close()
	}
	return nil
}

// storedTrade is the persisted wire form of a trade. Timestamps serialize as
// ISO-8601 (RFC 3339) strings; the close fields are omitted entirely while
// the trade is OPEN.
type storedTrade struct {
	ID           string     `json:"id"`
	Symbol       string     `json:"symbol"`
	Direction    string     `json:"direction"`
	Lots         float64    `json:"lots"`
	EntryPrice   float64    `json:"entryPrice"`
	CurrentPrice float64    `json:"currentPrice"`
	StopLoss     float64    `json:"stopLoss"`
	TakeProfit   float64    `json:"takeProfit"`
	OpenTime     time.Time  `json:"openTime"`
	CloseTime    *time.Time `json:"closeTime,omitempty"`
	ExitPrice    *float64   `json:"exitPrice,omitempty"`
	PNL          float64    `json:"pnl"`
	PNLPercent   float64    `json:"pnlPercent"`
	Status       string     `json:"status"`
	CloseReason  string     `json:"closeReason,omitempty"`
}

func toStored(t *domain.Trade) storedTrade {
	st := storedTrade{
		ID:           t.ID,
		Symbol:       t.Symbol,
		Direction:    string(t.Direction),
		Lots:         t.Lots,
		EntryPrice:   t.EntryPrice,
		CurrentPrice: t.CurrentPrice,
		StopLoss:     t.StopLoss,
		TakeProfit:   t.TakeProfit,
		OpenTime:     t.OpenTime,
		PNL:          t.PNL,
		PNLPercent:   t.PNLPercent,
		Status:       string(t.Status),
		CloseReason:  string(t.CloseReason),
	}
	if t.Status == domain.StatusClosed {
		closeTime := t.CloseTime
		exitPrice := t.ExitPrice
		st.CloseTime = &closeTime
		st.ExitPrice = &exitPrice
	}
	return st
}

func fromStored(st storedTrade) *domain.Trade {
	t := &domain.Trade{
		ID:           st.ID,
		Symbol:       st.Symbol,
		Direction:    domain.Direction(st.Direction),
		Lots:         st.Lots,
		EntryPrice:   st.EntryPrice,
		CurrentPrice: st.CurrentPrice,
		StopLoss:     st.StopLoss,
		TakeProfit:   st.TakeProfit,
		OpenTime:     st.OpenTime,
		PNL:          st.PNL,
		PNLPercent:   st.PNLPercent,
		Status:       domain.TradeStatus(st.Status),
		CloseReason:  domain.CloseReason(st.CloseReason),
	}
	if st.CloseTime != nil {
		t.CloseTime = *st.CloseTime
	}
	if st.ExitPrice != nil {
		t.ExitPrice = *st.ExitPrice
	}
	return t
}

// LoadTrades retrieves the full ordered trade list. A missing row yields an
// empty list; a row that fails to decode is reported as ports.ErrCorruptState
// so the ledger can fall back to an empty ledger instead of failing startup.
func (s *Store) LoadTrades(ctx context.Context) ([]*domain.Trade, error) {
	raw, err := s.loadValue(ctx, tradesKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug(ctx, "No stored trade list found")
			return []*domain.Trade{}, nil
		}
		return nil, fmt.Errorf("failed to query trade list: %w", err)
	}

	var stored []storedTrade
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("%w: decoding trade list: %v", ports.ErrCorruptState, err)
	}

	trades := make([]*domain.Trade, 0, len(stored))
	for _, st := range stored {
		trades = append(trades, fromStored(st))
	}
	return trades, nil
}

// SaveTrades replaces the stored trade list.
func (s *Store) SaveTrades(ctx context.Context, trades []*domain.Trade) error {
	stored := make([]storedTrade, 0, len(trades))
	for _, t := range trades {
		stored = append(stored, toStored(t))
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode trade list: %w", err)
	}
	if err := s.saveValue(ctx, tradesKey, string(raw)); err != nil {
		return fmt.Errorf("failed to save trade list: %w", err)
	}
	s.logger.Debug(ctx, "Trade list persisted", map[string]interface{}{"count": len(trades)})
	return nil
}

// LoadBalance retrieves the stored balance, seeding the store with
// defaultBalance when no prior value exists.
func (s *Store) LoadBalance(ctx context.Context, defaultBalance float64) (float64, error) {
	raw, err := s.loadValue(ctx, balanceKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info(ctx, "No stored balance found, seeding initial balance", map[string]interface{}{"balance": defaultBalance})
			if err := s.SaveBalance(ctx, defaultBalance); err != nil {
				return 0, err
			}
			return defaultBalance, nil
		}
		return 0, fmt.Errorf("failed to query balance: %w", err)
	}

	balance, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: decoding balance %q: %v", ports.ErrCorruptState, raw, err)
	}
	return balance, nil
}

// SaveBalance replaces the stored balance.
func (s *Store) SaveBalance(ctx context.Context, balance float64) error {
	value := strconv.FormatFloat(balance, 'f', -1, 64)
	if err := s.saveValue(ctx, balanceKey, value); err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	s.logger.Debug(ctx, "Balance persisted", map[string]interface{}{"balance": balance})
	return nil
}

// --- key-value helpers ---

func (s *Store) loadValue(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM ledger_state WHERE key = ?`
	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		return "", err // sql.ErrNoRows handled by the caller
	}
	return value, nil
}

func (s *Store) saveValue(ctx context.Context, key, value string) error {
	const query = `
	INSERT INTO ledger_state (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC())
	return err
}
