package ports

import (
	"context"

	"fxsim/internal/domain"
)

// QuoteHandler receives one mid-price observation. Handlers are invoked
// sequentially per feed, preserving per-symbol delivery order.
type QuoteHandler func(quote domain.Quote)

// PriceFeed delivers periodic price updates for a set of symbols. The core
// only consumes the (symbol, price) stream; it does not care whether quotes
// come from a simulator or a live connection.
type PriceFeed interface {
	// Run blocks, pushing quotes into the handler until the context is
	// canceled. Implementations own their reconnect policy.
	Run(ctx context.Context, handler QuoteHandler) error
}
