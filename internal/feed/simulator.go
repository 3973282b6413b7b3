package feed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"fxsim/internal/domain"
	"fxsim/internal/ports"
)

// Per-symbol random-walk step sizes. Unlisted symbols use a conservative
// default so exotic pairs still move.
var volatility = map[string]float64{
	"USDJPY": 0.05,
	"EURUSD": 0.0002,
	"GBPUSD": 0.0003,
	"BTCUSD": 50,
}

const defaultVolatility = 0.0001

// Quotes never walk below this floor.
const minPrice = 0.0001

// Simulator is a PriceFeed that generates a random-walk quote stream for a
// fixed set of symbols at a fixed cadence. It exists so the application is
// fully usable without any live broker connection.
type Simulator struct {
	logger   ports.Logger
	interval time.Duration
	symbols  []string
	rng      *rand.Rand
	prices   map[string]float64
}

// SimulatorConfig holds configuration for the simulator feed.
type SimulatorConfig struct {
	Symbols  []string
	Interval time.Duration
	Logger   ports.Logger
	Seed     int64 // 0 means time-based
}

// NewSimulator creates a simulator feed seeded with realistic starting
// prices per symbol.
func NewSimulator(cfg SimulatorConfig) (*Simulator, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for simulator feed")
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required for simulator feed")
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	prices := make(map[string]float64, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		prices[s] = seedPrice(s)
	}

	return &Simulator{
		logger:   cfg.Logger,
		interval: interval,
		symbols:  cfg.Symbols,
		rng:      rand.New(rand.NewSource(seed)),
		prices:   prices,
	}, nil
}

// Run emits one quote per symbol per tick until the context is canceled.
// Quotes for a symbol are emitted in order from a single goroutine, which
// satisfies the ledger's in-order delivery requirement.
func (s *Simulator) Run(ctx context.Context, handler ports.QuoteHandler) error {
	s.logger.Info(ctx, "Price simulator started", map[string]interface{}{
		"symbols":  s.symbols,
		"interval": s.interval.String(),
	})

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Price simulator stopped")
			return ctx.Err()
		case now := <-ticker.C:
			for _, symbol := range s.symbols {
				price := s.step(symbol)
				handler(domain.Quote{Symbol: symbol, Price: price, Time: now.UTC()})
			}
		}
	}
}

func (s *Simulator) step(symbol string) float64 {
	vol, ok := volatility[symbol]
	if !ok {
		vol = defaultVolatility
	}
	price := s.prices[symbol] + (s.rng.Float64()-0.5)*vol
	if price < minPrice {
		price = minPrice
	}
	s.prices[symbol] = price
	return price
}

// seedPrice returns a realistic starting price for a symbol, mirroring
// typical market levels per currency.
func seedPrice(symbol string) float64 {
	switch {
	case symbol == "USDJPY":
		return 149.856
	case symbol == "EURUSD":
		return 1.0845
	case symbol == "GBPUSD":
		return 1.2634
	case symbol == "BTCUSD":
		return 67342.5
	case strings.Contains(symbol, "JPY"):
		return 150.0
	case strings.Contains(symbol, "GBP"):
		return 1.25
	case strings.Contains(symbol, "AUD"):
		return 0.65
	case strings.Contains(symbol, "NZD"):
		return 0.60
	case strings.Contains(symbol, "CAD"):
		return 1.35
	case strings.Contains(symbol, "CHF"):
		return 0.90
	default:
		return 1.0
	}
}
