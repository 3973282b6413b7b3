package ports

import (
	"context"

	"fxsim/internal/domain"
)

// LedgerStore defines the durable key-value contract the ledger persists
// through. The trade list and the balance live under independent keys so a
// fresh process can read back an equivalent state.
type LedgerStore interface {
	// LoadTrades retrieves the full ordered trade list.
	// Returns an empty slice when nothing has been stored yet.
	LoadTrades(ctx context.Context) ([]*domain.Trade, error)
	// SaveTrades replaces the stored trade list.
	SaveTrades(ctx context.Context, trades []*domain.Trade) error
	// LoadBalance retrieves the realized cash balance. When no balance has
	// been stored yet it seeds the store with defaultBalance and returns it.
	LoadBalance(ctx context.Context, defaultBalance float64) (float64, error)
	// SaveBalance replaces the stored balance.
	SaveBalance(ctx context.Context, balance float64) error
}
