package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fxsim/internal/domain"
	"fxsim/internal/id"
	"fxsim/internal/ports"
)

// DefaultInitialBalance seeds the account on first use.
const DefaultInitialBalance = 10000

// Ledger is the single source of truth for the simulated account: the cash
// balance and the full trade list, open and closed. All other components
// observe or mutate that state exclusively through its operations.
//
// Mutations are applied in memory first and then written through to the
// store. A failed write is surfaced as an error wrapping
// ports.ErrStorageUnavailable but the in-memory mutation stands; the next
// successful write carries the already-mutated state, so the inconsistency
// heals itself unless the process dies first.
type Ledger struct {
	logger         ports.Logger
	store          ports.LedgerStore
	initialBalance float64

	mu      sync.Mutex // guards trades and balance; held for whole operations including persistence
	trades  []*domain.Trade
	balance float64
}

// Config holds the ledger's constructor-injected dependencies.
type Config struct {
	Store          ports.LedgerStore
	Logger         ports.Logger
	InitialBalance float64 // defaults to DefaultInitialBalance when <= 0
}

// New creates a Ledger and hydrates it from the store. Corrupt persisted
// state falls back to an empty trade list and the initial balance rather
// than failing startup.
func New(ctx context.Context, cfg Config) (*Ledger, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required for ledger")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for ledger")
	}
	initial := cfg.InitialBalance
	if initial <= 0 {
		initial = DefaultInitialBalance
	}

	l := &Ledger{
		logger:         cfg.Logger,
		store:          cfg.Store,
		initialBalance: initial,
	}

	trades, err := cfg.Store.LoadTrades(ctx)
	if err != nil {
		if !errors.Is(err, ports.ErrCorruptState) {
			return nil, fmt.Errorf("failed to load trades: %w", err)
		}
		cfg.Logger.Warn(ctx, "Stored trade list is corrupt, starting with an empty ledger")
		trades = nil
	}
	l.trades = trades

	balance, err := cfg.Store.LoadBalance(ctx, initial)
	if err != nil {
		if !errors.Is(err, ports.ErrCorruptState) {
			return nil, fmt.Errorf("failed to load balance: %w", err)
		}
		cfg.Logger.Warn(ctx, "Stored balance is corrupt, resetting to initial balance", map[string]interface{}{"initialBalance": initial})
		balance = initial
	}
	l.balance = balance

	cfg.Logger.Info(ctx, "Ledger hydrated", map[string]interface{}{
		"trades":  len(l.trades),
		"balance": l.balance,
	})
	return l, nil
}

// OpenTradeParams are the caller-supplied attributes of a new trade.
// Risk-profile validation (lot caps etc.) is the caller's responsibility.
type OpenTradeParams struct {
	Symbol     string
	Direction  domain.Direction
	Lots       float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
}

func (p OpenTradeParams) validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ports.ErrInvalidRequest)
	}
	if !p.Direction.IsValid() {
		return fmt.Errorf("%w: direction must be BUY or SELL", ports.ErrInvalidRequest)
	}
	if p.Lots <= 0 {
		return fmt.Errorf("%w: lots must be positive", ports.ErrInvalidRequest)
	}
	if p.EntryPrice <= 0 {
		return fmt.Errorf("%w: entry price must be positive", ports.ErrInvalidRequest)
	}
	return nil
}

// OpenTrade creates a new OPEN trade and persists the trade list.
// On a persistence failure the trade is still returned alongside the error.
func (l *Ledger) OpenTrade(ctx context.Context, params OpenTradeParams) (*domain.Trade, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	trade := &domain.Trade{
		ID:           id.NewTradeID(),
		Symbol:       params.Symbol,
		Direction:    params.Direction,
		Lots:         params.Lots,
		EntryPrice:   params.EntryPrice,
		CurrentPrice: params.EntryPrice,
		StopLoss:     params.StopLoss,
		TakeProfit:   params.TakeProfit,
		OpenTime:     time.Now().UTC(),
		Status:       domain.StatusOpen,
	}
	l.trades = append(l.trades, trade)

	l.logger.Info(ctx, "Trade opened", map[string]interface{}{
		"tradeID":   trade.ID,
		"symbol":    trade.Symbol,
		"direction": trade.Direction,
		"lots":      trade.Lots,
		"entry":     trade.EntryPrice,
	})

	if err := l.persistTradesLocked(ctx); err != nil {
		return trade.Clone(), err
	}
	return trade.Clone(), nil
}

// UpdateTradePrice applies a price observation to a single open trade,
// recomputing its mark-to-market P/L and closing it when a stop-loss or
// take-profit is breached. Referencing an unknown or already CLOSED id
// returns ports.ErrNotFound and changes nothing.
func (l *Ledger) UpdateTradePrice(ctx context.Context, tradeID string, price float64) (*domain.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	trade := l.findOpenLocked(tradeID)
	if trade == nil {
		return nil, fmt.Errorf("open trade %q: %w", tradeID, ports.ErrNotFound)
	}

	closed := l.markToMarketLocked(ctx, trade, price)

	var err error
	if closed {
		err = l.persistAllLocked(ctx)
	} else {
		err = l.persistTradesLocked(ctx)
	}
	return trade.Clone(), err
}

// ApplyQuote applies one tick to every open trade of the symbol, in
// insertion order, and persists the resulting state once. It returns the
// trades that were touched (closed ones in their final form).
func (l *Ledger) ApplyQuote(ctx context.Context, symbol string, price float64) ([]*domain.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var touched []*domain.Trade
	anyClosed := false
	for _, trade := range l.trades {
		if !trade.IsOpen() || trade.Symbol != symbol {
			continue
		}
		if l.markToMarketLocked(ctx, trade, price) {
			anyClosed = true
		}
		touched = append(touched, trade.Clone())
	}
	if len(touched) == 0 {
		return nil, nil
	}

	var err error
	if anyClosed {
		err = l.persistAllLocked(ctx)
	} else {
		err = l.persistTradesLocked(ctx)
	}
	return touched, err
}

// CloseTrade closes an open trade at the given exit price; a non-positive
// exitPrice means "close at the last observed price". Closing an unknown or
// already CLOSED id returns ports.ErrNotFound and never double-credits the
// balance.
func (l *Ledger) CloseTrade(ctx context.Context, tradeID string, exitPrice float64) (*domain.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	trade := l.findOpenLocked(tradeID)
	if trade == nil {
		return nil, fmt.Errorf("open trade %q: %w", tradeID, ports.ErrNotFound)
	}

	price := exitPrice
	if price <= 0 {
		price = trade.CurrentPrice
	}
	l.closeLocked(ctx, trade, price, domain.CloseReasonManual)

	err := l.persistAllLocked(ctx)
	return trade.Clone(), err
}

// OpenTrades returns all OPEN trades in insertion order.
func (l *Ledger) OpenTrades() []*domain.Trade {
	return l.filter(func(t *domain.Trade) bool { return t.IsOpen() })
}

// ClosedTrades returns all CLOSED trades in insertion order.
func (l *Ledger) ClosedTrades() []*domain.Trade {
	return l.filter(func(t *domain.Trade) bool { return !t.IsOpen() })
}

// AllTrades returns every trade, open and closed, in insertion order.
func (l *Ledger) AllTrades() []*domain.Trade {
	return l.filter(func(*domain.Trade) bool { return true })
}

// Balance returns the realized cash balance.
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Equity returns balance plus the unrealized P/L of all open trades.
// It is always derived, never persisted.
func (l *Ledger) Equity() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	equity := l.balance
	for _, t := range l.trades {
		if t.IsOpen() {
			equity += t.PNL
		}
	}
	return equity
}

// Reset clears all trades and restores the initial balance. Intended for
// demo/testing resets, not regular operation.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.trades = nil
	l.balance = l.initialBalance
	l.logger.Info(ctx, "Ledger reset", map[string]interface{}{"balance": l.balance})

	return l.persistAllLocked(ctx)
}

// --- internal helpers (mutex held by caller) ---

func (l *Ledger) findOpenLocked(tradeID string) *domain.Trade {
	for _, t := range l.trades {
		if t.ID == tradeID && t.IsOpen() {
			return t
		}
	}
	return nil
}

// markToMarketLocked applies a price to an open trade: updates CurrentPrice
// and P/L, then evaluates the trade's triggers, closing it at the breached
// threshold when one fires. Reports whether the trade was closed.
func (l *Ledger) markToMarketLocked(ctx context.Context, trade *domain.Trade, price float64) bool {
	trade.CurrentPrice = price
	trade.PNL, trade.PNLPercent = domain.ProfitLoss(trade.Direction, trade.EntryPrice, price, trade.Lots, trade.Symbol)

	exitPrice, reason, triggered := EvaluateTriggers(trade, price)
	if !triggered {
		return false
	}
	l.closeLocked(ctx, trade, exitPrice, reason)
	return true
}

// closeLocked finalizes the OPEN -> CLOSED transition: the exit price and
// close time are set exactly once, the final P/L is recomputed from entry vs.
// exit, and the realized amount is credited to the balance.
func (l *Ledger) closeLocked(ctx context.Context, trade *domain.Trade, exitPrice float64, reason domain.CloseReason) {
	trade.ExitPrice = exitPrice
	trade.CurrentPrice = exitPrice
	trade.CloseTime = time.Now().UTC()
	trade.Status = domain.StatusClosed
	trade.CloseReason = reason
	trade.PNL, trade.PNLPercent = domain.ProfitLoss(trade.Direction, trade.EntryPrice, exitPrice, trade.Lots, trade.Symbol)

	l.balance += trade.PNL

	l.logger.Info(ctx, "Trade closed", map[string]interface{}{
		"tradeID":   trade.ID,
		"symbol":    trade.Symbol,
		"reason":    reason,
		"exitPrice": exitPrice,
		"pnl":       trade.PNL,
		"balance":   l.balance,
	})
}

func (l *Ledger) persistTradesLocked(ctx context.Context) error {
	if err := l.store.SaveTrades(ctx, l.trades); err != nil {
		l.logger.Error(ctx, err, "Failed to persist trade list; in-memory state retained")
		return fmt.Errorf("%w: %v", ports.ErrStorageUnavailable, err)
	}
	return nil
}

// persistAllLocked writes the trade list and the balance. Both writes must
// succeed for the operation to be considered persisted.
func (l *Ledger) persistAllLocked(ctx context.Context) error {
	tradesErr := l.store.SaveTrades(ctx, l.trades)
	balanceErr := l.store.SaveBalance(ctx, l.balance)
	if tradesErr == nil && balanceErr == nil {
		return nil
	}
	err := errors.Join(tradesErr, balanceErr)
	l.logger.Error(ctx, err, "Failed to persist ledger state; in-memory state retained")
	return fmt.Errorf("%w: %v", ports.ErrStorageUnavailable, err)
}

func (l *Ledger) filter(keep func(*domain.Trade) bool) []*domain.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*domain.Trade, 0, len(l.trades))
	for _, t := range l.trades {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}
