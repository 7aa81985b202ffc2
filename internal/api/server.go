package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/ledger"
)

// CallerHeader carries the submitting address.
const CallerHeader = "X-Caller"

// Submitter is the part of the engine the mutating handlers need.
type Submitter interface {
	Submit(ctx context.Context, cmd ir.Command) (ir.Receipt, error)
}

// Server routes HTTP requests to the engine and the ledger.
type Server struct {
	submitter Submitter
	ledger    *ledger.Ledger
	logger    *slog.Logger
	metrics   http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// NewServer creates a server. l must be the ledger sub applies commands to.
func NewServer(sub Submitter, l *ledger.Ledger, opts ...Option) *Server {
	s := &Server{
		submitter: sub,
		ledger:    l,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", HealthHandler)

	mux.HandleFunc("POST /tickets/{id}/buy", s.handleBuy)
	mux.HandleFunc("POST /tickets/{id}/swap-offer", s.handleOfferSwap)
	mux.HandleFunc("POST /tickets/{id}/swap-accept", s.handleAcceptSwap)
	mux.HandleFunc("GET /tickets/{id}", s.handleGetTicket)

	mux.HandleFunc("POST /listings", s.handleCreateListing)
	mux.HandleFunc("POST /listings/{index}/accept", s.handleAcceptListing)
	mux.HandleFunc("GET /listings/{index}", s.handleGetListing)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	mux.Handle("/", NotFoundHandler())

	return RequestLogger(mux, s.logger)
}

// HealthHandler reports basic liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
