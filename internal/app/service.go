package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fxsim/internal/domain"
	"fxsim/internal/history"
	"fxsim/internal/ledger"
	"fxsim/internal/ports"
)

// QuoteSink receives every quote the service processes, e.g. for pushing to
// websocket subscribers. Implementations must not block.
type QuoteSink interface {
	BroadcastQuote(q domain.Quote)
}

// Service wires the price feed into the ledger and the tick recorder, and
// owns the HTTP server's lifecycle. It is the composition root's single
// "run the application" entry point.
type Service struct {
	logger   ports.Logger
	ledger   *ledger.Ledger
	recorder *history.Recorder
	feed     ports.PriceFeed
	handler  http.Handler
	httpAddr string
	sink     QuoteSink // optional
}

// Config holds the service's dependencies.
type Config struct {
	Logger   ports.Logger
	Ledger   *ledger.Ledger
	Recorder *history.Recorder
	Feed     ports.PriceFeed
	Handler  http.Handler
	HTTPAddr string
	Sink     QuoteSink
}

// NewService creates the application service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Logger == nil || cfg.Ledger == nil || cfg.Recorder == nil || cfg.Feed == nil || cfg.Handler == nil {
		return nil, fmt.Errorf("missing required dependencies for service")
	}
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	return &Service{
		logger:   cfg.Logger,
		ledger:   cfg.Ledger,
		recorder: cfg.Recorder,
		feed:     cfg.Feed,
		handler:  cfg.Handler,
		httpAddr: addr,
		sink:     cfg.Sink,
	}, nil
}

// Start runs the feed and the HTTP server until the context is canceled or
// a SIGINT/SIGTERM arrives, then shuts both down gracefully.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting service...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	// Price feed
	feedErrCh := make(chan error, 1)
	go func() {
		feedErrCh <- s.feed.Run(ctx, s.handleQuote)
	}()

	// HTTP server
	httpSrv := &http.Server{
		Addr:              s.httpAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	httpErrCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": s.httpAddr})
		httpErrCh <- httpSrv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info(ctx, "Context canceled, shutting down")
	case err := <-feedErrCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error(ctx, err, "Price feed stopped unexpectedly")
			runErr = fmt.Errorf("price feed stopped: %w", err)
		}
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(ctx, err, "HTTP server stopped unexpectedly")
			runErr = fmt.Errorf("http server stopped: %w", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Warn(shutdownCtx, "HTTP server shutdown was not clean", map[string]interface{}{"error": err})
	}

	s.logger.Info(context.Background(), "Service stopped.")
	return runErr
}

// handleQuote is the per-tick path: record the tick, mark every open trade
// of the symbol to market (closing breached ones), then fan the quote out
// to the sink.
func (s *Service) handleQuote(q domain.Quote) {
	ctx := context.Background()

	s.recorder.Record(q)

	if _, err := s.ledger.ApplyQuote(ctx, q.Symbol, q.Price); err != nil {
		// In-memory state is already updated; the next successful write
		// will carry it. Surface the storage problem in the logs.
		s.logger.Error(ctx, err, "Failed to persist tick application", map[string]interface{}{"symbol": q.Symbol})
	}

	if s.sink != nil {
		s.sink.BroadcastQuote(q)
	}
}
