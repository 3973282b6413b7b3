package yourbourse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fxsim/internal/domain"
	"fxsim/internal/ports"

	"github.com/gorilla/websocket"
)

const (
	pingPeriod  = 15 * time.Second
	readTimeout = 30 * time.Second
)

// Feed implements ports.PriceFeed over the YourBourse bridge websocket.
// It subscribes to L1 (top-of-book) streaming per symbol and publishes the
// mid price of each update.
type Feed struct {
	logger         ports.Logger
	wsURL          string
	apiKey         string
	symbols        []string
	reconnectDelay time.Duration
	maxAttempts    int
}

// Config holds configuration for the YourBourse feed adapter.
type Config struct {
	WSURL          string
	APIKey         string
	Symbols        []string
	Logger         ports.Logger
	ReconnectDelay time.Duration
	MaxAttempts    int
}

// New creates a YourBourse feed adapter.
func New(cfg Config) (*Feed, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for YourBourse feed")
	}
	if cfg.WSURL == "" {
		return nil, fmt.Errorf("websocket URL is required for YourBourse feed")
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required for YourBourse feed")
	}
	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = 3 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Feed{
		logger:         cfg.Logger,
		wsURL:          cfg.WSURL,
		apiKey:         cfg.APIKey,
		symbols:        cfg.Symbols,
		reconnectDelay: delay,
		maxAttempts:    maxAttempts,
	}, nil
}

// subscribeMessage is the bridge's L1 subscription request.
type subscribeMessage struct {
	M string `json:"m"`
	C string `json:"c"`
	P struct {
		Symbol    string `json:"s"`
		Streaming bool   `json:"streaming"`
	} `json:"p"`
	H     map[string]string `json:"h,omitempty"`
	ReqID string            `json:"reqId"`
}

// inboundMessage covers the bridge's pong and L1 data frames.
type inboundMessage struct {
	M string `json:"m"` // "pong" for keepalive replies
	C string `json:"c"` // "L1" for price frames
	D []struct {
		Symbol string  `json:"s"`
		Bid    float64 `json:"bp"`
		Ask    float64 `json:"ap"`
		Time   int64   `json:"t"`
	} `json:"d"`
}

// Run connects, subscribes and pumps quotes until the context is canceled.
// Connection drops are retried with a fixed delay up to the configured
// attempt limit; a successful connection resets the counter.
func (f *Feed) Run(ctx context.Context, handler ports.QuoteHandler) error {
	attempt := 0
	for {
		err := f.connect(ctx, handler)
		if ctx.Err() != nil {
			f.logger.Info(ctx, "YourBourse feed stopped")
			return ctx.Err()
		}

		attempt++
		if attempt >= f.maxAttempts {
			f.logger.Error(ctx, err, "YourBourse feed exceeded reconnect attempts, giving up", map[string]interface{}{"maxAttempts": f.maxAttempts})
			return fmt.Errorf("%w: %v", ports.ErrFeedClosed, err)
		}
		f.logger.Warn(ctx, "YourBourse websocket disconnected, reconnecting", map[string]interface{}{
			"error":   err,
			"attempt": attempt,
			"delay":   f.reconnectDelay.String(),
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.reconnectDelay):
		}
	}
}

func (f *Feed) connect(ctx context.Context, handler ports.QuoteHandler) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrConnectionFailed, err)
	}
	defer conn.Close()

	for _, symbol := range f.symbols {
		if err := f.subscribe(conn, symbol); err != nil {
			return fmt.Errorf("subscribing to %s: %w", symbol, err)
		}
	}
	f.logger.Info(ctx, "YourBourse websocket connected", map[string]interface{}{"symbols": f.symbols})

	// Keepalive pings on a side goroutine; the read loop below notices a
	// dead peer via the read deadline.
	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go f.pingLoop(pingCtx, conn)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			f.logger.Debug(ctx, "Skipping unparseable frame", map[string]interface{}{"error": err})
			continue
		}
		if msg.M == "pong" || msg.C != "L1" {
			continue
		}

		for _, tick := range msg.D {
			if tick.Bid <= 0 || tick.Ask <= 0 {
				continue
			}
			handler(domain.Quote{
				Symbol: tick.Symbol,
				Price:  (tick.Bid + tick.Ask) / 2,
				Time:   time.UnixMilli(tick.Time).UTC(),
			})
		}
	}
}

func (f *Feed) subscribe(conn *websocket.Conn, symbol string) error {
	msg := subscribeMessage{M: "subscribe", C: "L1"}
	msg.P.Symbol = symbol
	msg.P.Streaming = true
	if f.apiKey != "" {
		msg.H = map[string]string{"X-YB-API-Key": f.apiKey, "X-YB-LOCALE": "en"}
	}
	msg.ReqID = fmt.Sprintf("req_%d", time.Now().UnixMilli())
	return conn.WriteJSON(msg)
}

func (f *Feed) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteJSON(map[string]string{"m": "ping"}); err != nil {
				return // read loop will observe the broken connection
			}
		}
	}
}
