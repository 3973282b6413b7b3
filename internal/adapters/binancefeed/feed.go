package binancefeed

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"fxsim/internal/domain"
	"fxsim/internal/ports"

	"github.com/adshao/go-binance/v2"
)

// streamSymbols maps the application's crypto tickers to Binance spot
// symbols. Symbols without an entry cannot be served by this feed.
var streamSymbols = map[string]string{
	"BTCUSD": "BTCUSDT",
	"ETHUSD": "ETHUSDT",
	"SOLUSD": "SOLUSDT",
}

// Feed implements ports.PriceFeed using Binance aggregate-trade websocket
// streams. It serves the crypto subset of the configured symbols; forex
// pairs come from the simulator or the YourBourse bridge.
type Feed struct {
	logger         ports.Logger
	symbols        []string
	reconnectDelay time.Duration
	maxAttempts    int
}

// Config holds configuration for the Binance feed adapter.
type Config struct {
	Symbols        []string
	Logger         ports.Logger
	ReconnectDelay time.Duration // base delay, grows exponentially per attempt
	MaxAttempts    int
}

// New creates a Binance feed adapter for the crypto subset of symbols.
func New(cfg Config) (*Feed, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance feed")
	}
	var supported []string
	for _, s := range cfg.Symbols {
		if _, ok := streamSymbols[s]; ok {
			supported = append(supported, s)
		} else {
			cfg.Logger.Warn(context.Background(), "Symbol not served by Binance feed, skipping", map[string]interface{}{"symbol": s})
		}
	}
	if len(supported) == 0 {
		return nil, fmt.Errorf("none of the configured symbols map to a Binance stream")
	}
	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = 1 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Feed{
		logger:         cfg.Logger,
		symbols:        supported,
		reconnectDelay: delay,
		maxAttempts:    maxAttempts,
	}, nil
}

// Run opens one stream per symbol and blocks until the context is canceled
// or every stream has exhausted its reconnect attempts.
func (f *Feed) Run(ctx context.Context, handler ports.QuoteHandler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, symbol := range f.symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			f.streamSymbol(ctx, symbol, handler)
		}(symbol)
	}
	wg.Wait()

	if ctx.Err() != nil {
		f.logger.Info(ctx, "Binance feed stopped")
		return ctx.Err()
	}
	return ports.ErrFeedClosed
}

// streamSymbol maintains one aggregate-trade stream with reconnection and
// exponential backoff. Handler invocations for a symbol come from this
// single goroutine, preserving delivery order.
func (f *Feed) streamSymbol(ctx context.Context, symbol string, handler ports.QuoteHandler) {
	streamSymbol := streamSymbols[symbol]

	wsHandler := func(event *binance.WsAggTradeEvent) {
		price, err := strconv.ParseFloat(event.Price, 64)
		if err != nil || price <= 0 {
			return
		}
		handler(domain.Quote{
			Symbol: symbol,
			Price:  price,
			Time:   time.UnixMilli(event.TradeTime).UTC(),
		})
	}

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		errCh := make(chan error, 1)
		errHandler := func(err error) {
			select {
			case errCh <- err:
			default:
			}
		}

		f.logger.Info(ctx, "Connecting Binance stream", map[string]interface{}{"symbol": symbol, "stream": streamSymbol, "attempt": attempt + 1})
		doneCh, stopCh, err := binance.WsAggTradeServe(streamSymbol, wsHandler, errHandler)
		if err != nil {
			attempt++
			if attempt >= f.maxAttempts {
				f.logger.Error(ctx, err, "Binance stream exceeded reconnect attempts, giving up", map[string]interface{}{"symbol": symbol})
				return
			}
			delay := f.reconnectDelay * time.Duration(1<<uint(attempt-1))
			f.logger.Warn(ctx, "Binance stream connection failed, retrying", map[string]interface{}{"symbol": symbol, "delay": delay.String()})
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}

		attempt = 0
		select {
		case <-ctx.Done():
			close(stopCh)
			<-doneCh
			return
		case err := <-errCh:
			f.logger.Warn(ctx, "Binance stream error, reconnecting", map[string]interface{}{"symbol": symbol, "error": err})
			close(stopCh)
			<-doneCh
		case <-doneCh:
			f.logger.Warn(ctx, "Binance stream closed, reconnecting", map[string]interface{}{"symbol": symbol})
		}
	}
}
