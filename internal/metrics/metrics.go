// Package metrics provides Prometheus instrumentation for the clicker engine.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atmx/clicker-engine/internal/game"
	"github.com/atmx/clicker-engine/internal/model"
)

var (
	// IntentsTotal counts dispatched intents by name and result.
	IntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clicker_intents_total",
		Help: "Total number of dispatched intents",
	}, []string{"intent", "result"})

	// Balance tracks the current balance.
	Balance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clicker_balance",
		Help: "Current account balance",
	})

	// Levels tracks the click and auto levels.
	Levels = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clicker_level",
		Help: "Current upgrade level",
	}, []string{"kind"})

	// LedgerEntriesTotal counts ledger entries by kind.
	LedgerEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clicker_ledger_entries_total",
		Help: "Ledger entries recorded",
	}, []string{"kind"})

	// CasinoSettlementsTotal counts settled casino rounds by game and outcome.
	CasinoSettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clicker_casino_settlements_total",
		Help: "Settled casino rounds",
	}, []string{"game", "outcome"})

	// JournalDroppedTotal counts ledger entries dropped by a full journal queue.
	JournalDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clicker_journal_dropped_total",
		Help: "Ledger entries dropped before reaching the journal",
	})

	// JournalErrorsTotal counts failed journal writes.
	JournalErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clicker_journal_errors_total",
		Help: "Failed journal appends",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clicker_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clicker_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clicker_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StoreHook records every dispatched intent. Register it with
// game.WithHooks.
type StoreHook struct{}

func (StoreHook) OnCommit(sig game.Signal) {
	IntentsTotal.WithLabelValues(sig.Intent.IntentName(), "accepted").Inc()

	s := sig.State
	Balance.Set(s.Account.Balance.InexactFloat64())
	Levels.WithLabelValues("click").Set(float64(s.Levels.Click))
	Levels.WithLabelValues("auto").Set(float64(s.Levels.Auto))

	for _, e := range s.Ledger.Since(sig.Prev.Ledger) {
		LedgerEntriesTotal.WithLabelValues(string(e.Kind)).Inc()
		if e.Kind == model.KindCasinoSettle {
			CasinoSettlementsTotal.WithLabelValues(e.Game, outcome(e)).Inc()
		}
	}
}

func (StoreHook) OnReject(in game.Intent, err error) {
	name := "nil"
	if in != nil {
		name = in.IntentName()
	}
	IntentsTotal.WithLabelValues(name, reason(err)).Inc()
}

func outcome(e model.Transaction) string {
	switch {
	case e.Amount.IsPositive():
		return "win"
	case e.Amount.IsZero():
		return "push"
	default:
		return "lose"
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, game.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, game.ErrInsufficientHoldings):
		return "insufficient_holdings"
	case errors.Is(err, game.ErrUnknownIntent):
		return "unknown_intent"
	case errors.Is(err, game.ErrStaleOrder):
		return "stale_order"
	default:
		return "invalid"
	}
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack passes through to the underlying writer for WebSocket upgrades.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(w.ResponseWriter).Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
