package domain

import "time"

// Trade represents a simulated position held against the virtual account.
// A trade is mutated on every matching price tick while OPEN and becomes
// immutable history once CLOSED. Trades are never deleted.
type Trade struct {
	ID           string      `json:"id"`           // Unique identifier, assigned at open (ULID)
	Symbol       string      `json:"symbol"`       // Instrument identifier (e.g., "EURUSD", "BTCUSD")
	Direction    Direction   `json:"direction"`    // BUY or SELL, immutable after open
	Lots         float64     `json:"lots"`         // Position size, immutable, > 0
	EntryPrice   float64     `json:"entryPrice"`   // Price at open, immutable, > 0
	CurrentPrice float64     `json:"currentPrice"` // Last price observed for this trade's symbol
	StopLoss     float64     `json:"stopLoss"`     // Stop-loss trigger threshold
	TakeProfit   float64     `json:"takeProfit"`   // Take-profit trigger threshold
	OpenTime     time.Time   `json:"openTime"`     // Timestamp at creation, immutable
	CloseTime    time.Time   `json:"closeTime"`    // Zero value while OPEN, set exactly once at close
	ExitPrice    float64     `json:"exitPrice"`    // 0 while OPEN; the breached threshold (or manual price) at close
	PNL          float64     `json:"pnl"`          // Mark-to-market P/L, finalized at close
	PNLPercent   float64     `json:"pnlPercent"`   // P/L as a percentage of the entry price
	Status       TradeStatus `json:"status"`       // OPEN or CLOSED
	CloseReason  CloseReason `json:"closeReason,omitempty"`
}

// IsOpen checks if the trade status is open.
func (t *Trade) IsOpen() bool {
	return t.Status == StatusOpen
}

// Clone returns a copy of the trade so callers cannot mutate ledger state
// through a returned pointer.
func (t *Trade) Clone() *Trade {
	c := *t
	return &c
}
