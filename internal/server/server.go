package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"fxsim/internal/domain"
	"fxsim/internal/history"
	"fxsim/internal/ledger"
	"fxsim/internal/ports"
	"fxsim/internal/risk"
	"fxsim/internal/utils"
)

const quoteStreamBuffer = 64

// Server exposes the simulated account over a JSON API plus a websocket
// quote stream. It also implements app.QuoteSink so the feed pipeline can
// push live quotes to connected clients.
type Server struct {
	logger     ports.Logger
	ledger     *ledger.Ledger
	recorder   *history.Recorder
	profile    risk.Profile
	quoteHub   *hub[domain.Quote]
	upgrader   websocket.Upgrader
	corsOrigin string
}

// Config holds the server's dependencies.
type Config struct {
	Logger     ports.Logger
	Ledger     *ledger.Ledger
	Recorder   *history.Recorder
	Profile    risk.Profile
	CORSOrigin string // defaults to "*"
}

// New creates the API server.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil || cfg.Ledger == nil || cfg.Recorder == nil {
		return nil, fmt.Errorf("missing required dependencies for server")
	}
	origin := cfg.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return &Server{
		logger:     cfg.Logger,
		ledger:     cfg.Ledger,
		recorder:   cfg.Recorder,
		profile:    cfg.Profile,
		quoteHub:   newHub[domain.Quote](),
		upgrader:   websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		corsOrigin: origin,
	}, nil
}

// BroadcastQuote pushes a quote to all websocket subscribers. Never blocks.
func (s *Server) BroadcastQuote(q domain.Quote) {
	s.quoteHub.Broadcast(q)
}

// Routes builds the HTTP handler for all endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/account", s.handleAccount)
	mux.HandleFunc("GET /api/trades", s.handleListTrades)
	mux.HandleFunc("GET /api/trades/export", s.handleExportTrades)
	mux.HandleFunc("POST /api/trades", s.handleOpenTrade)
	mux.HandleFunc("POST /api/trades/{id}/close", s.handleCloseTrade)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/quotes", s.handleQuotes)
	mux.HandleFunc("GET /api/candles", s.handleCandles)
	mux.HandleFunc("GET /ws/quotes", s.handleQuoteStream)
	return s.withCORS(mux)
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type accountResponse struct {
	Balance   float64 `json:"balance"`
	Equity    float64 `json:"equity"`
	OpenCount int     `json:"openTradeCount"`
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, accountResponse{
		Balance:   s.ledger.Balance(),
		Equity:    s.ledger.Equity(),
		OpenCount: len(s.ledger.OpenTrades()),
	})
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	var trades []*domain.Trade
	switch status := r.URL.Query().Get("status"); status {
	case "", "all":
		trades = s.ledger.AllTrades()
	case "open":
		trades = s.ledger.OpenTrades()
	case "closed":
		trades = s.ledger.ClosedTrades()
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown status filter %q", status))
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleExportTrades(w http.ResponseWriter, r *http.Request) {
	trades := s.ledger.AllTrades()
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trades.csv"`)
	if err := utils.WriteTradesCSV(w, trades); err != nil {
		s.logger.Error(r.Context(), err, "Failed to stream trade export")
	}
}

type openTradeRequest struct {
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	Lots       float64 `json:"lots"`
	EntryPrice float64 `json:"entryPrice"`
	StopLoss   float64 `json:"stopLoss"`
	TakeProfit float64 `json:"takeProfit"`
}

func (s *Server) handleOpenTrade(w http.ResponseWriter, r *http.Request) {
	var req openTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
		return
	}

	if err := s.profile.ValidateOrder(req.Lots); err != nil {
		s.writeMappedError(r.Context(), w, err)
		return
	}

	entry := req.EntryPrice
	if entry <= 0 {
		latest, ok := s.recorder.Latest(req.Symbol)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("no entry price given and no quote seen yet for %s", req.Symbol))
			return
		}
		entry = latest.Price
	}

	stopLoss, takeProfit := req.StopLoss, req.TakeProfit
	if stopLoss == 0 && takeProfit == 0 {
		stopLoss, takeProfit = domain.AutoStops(entry, domain.Direction(req.Direction), req.Symbol)
	}

	trade, err := s.ledger.OpenTrade(r.Context(), ledger.OpenTradeParams{
		Symbol:     req.Symbol,
		Direction:  domain.Direction(req.Direction),
		Lots:       req.Lots,
		EntryPrice: entry,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	})
	if err != nil {
		s.writeMappedError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trade)
}

type closeTradeRequest struct {
	ExitPrice float64 `json:"exitPrice"`
}

func (s *Server) handleCloseTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := r.PathValue("id")

	// The exit price body is optional; an absent or empty body means
	// "close at the last observed price".
	var req closeTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
		return
	}

	trade, err := s.ledger.CloseTrade(r.Context(), tradeID, req.ExitPrice)
	if err != nil {
		s.writeMappedError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Reset(r.Context()); err != nil {
		s.writeMappedError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		Balance: s.ledger.Balance(),
		Equity:  s.ledger.Equity(),
	})
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.recorder.LatestAll())
}

func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("symbol query parameter is required"))
		return
	}
	timeframe := r.URL.Query().Get("tf")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	candles := s.recorder.Candles(symbol, timeframe, limit)
	if candles == nil {
		candles = []domain.Candle{}
	}
	writeJSON(w, http.StatusOK, candles)
}

type outboundMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func (s *Server) handleQuoteStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := s.quoteHub.Subscribe(quoteStreamBuffer)
	defer s.quoteHub.Unsubscribe(sub)

	for quote := range sub.ch {
		msg := outboundMessage{Type: "quote", Data: quote}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// writeMappedError translates the application's sentinel errors into HTTP
// status codes.
func (s *Server) writeMappedError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, ports.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.logger.Error(ctx, err, "Unhandled error in API handler")
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
