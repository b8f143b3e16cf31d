package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tradebot/internal/broker"
	"tradebot/internal/store"
)

// Server serves the REST API over the broker's ledger, the trade log, and
// the bar store. All endpoints are read-only; orders cannot be placed over
// HTTP.
type Server struct {
	broker    broker.Broker
	trades    store.TradeLog
	bars      store.BarStore
	startedAt time.Time
	log       *slog.Logger
}

// NewServer creates the API server. trades and bars may be nil; the
// corresponding endpoints then report 404.
func NewServer(b broker.Broker, trades store.TradeLog, bars store.BarStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		broker:    b,
		trades:    trades,
		bars:      bars,
		startedAt: time.Now(),
		log:       log.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/account", s.handleAccount)
	mux.HandleFunc("GET /api/positions", s.handlePositions)
	mux.HandleFunc("GET /api/trades", s.handleTrades)
	mux.HandleFunc("GET /api/bars/{symbol}/latest", s.handleLatestBar)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

// Run serves the API on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, StatusJSON{
		Status:        "ok",
		Broker:        s.broker.Name(),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	cash := s.broker.GetBalance()
	positions := s.broker.GetPositions()

	equity := cash
	open := 0
	for _, p := range positions {
		equity += p.Exposure()
		if p.Quantity > 0 {
			open++
		}
	}
	writeJSON(w, AccountJSON{Cash: cash, Equity: equity, OpenPositions: open})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions := s.broker.GetPositions()
	out := make([]PositionJSON, 0, len(positions))
	for _, p := range positions {
		out = append(out, positionJSON(p))
	}
	writeJSON(w, out)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	// Prefer the durable log; fall back to the broker's in-memory history.
	if s.trades != nil {
		trades, err := s.trades.ListTrades(r.Context(), limit)
		if err != nil {
			s.log.Error("listing trades", "error", err)
			writeError(w, http.StatusInternalServerError, "listing trades failed")
			return
		}
		out := make([]TradeJSON, 0, len(trades))
		for _, t := range trades {
			out = append(out, tradeJSON(t))
		}
		writeJSON(w, out)
		return
	}

	history := s.broker.TradeHistory()
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]TradeJSON, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- { // newest first, matching the log
		out = append(out, tradeJSON(history[i]))
	}
	writeJSON(w, out)
}

func (s *Server) handleLatestBar(w http.ResponseWriter, r *http.Request) {
	if s.bars == nil {
		writeError(w, http.StatusNotFound, "no bar store configured")
		return
	}
	symbol := r.PathValue("symbol")
	bar, err := s.bars.LatestBar(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no bars for "+symbol)
			return
		}
		s.log.Error("reading latest bar", "symbol", symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "reading latest bar failed")
		return
	}
	writeJSON(w, barJSON(*bar))
}
