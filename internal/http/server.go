// Package http is the read-side boundary: it authenticates callers, validates
// statement queries and renders the query service's output as JSON.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"txhistory/internal/core"
	"txhistory/internal/metrics"
	"txhistory/internal/middleware/trace"
	"txhistory/internal/services"
)

// StatementService answers month statement queries.
type StatementService interface {
	GetMonthStatement(ctx context.Context, q services.MonthQuery) (*core.MonthStatement, error)
}

// Options carries the server's tunables from config.
type Options struct {
	JWTSecret           []byte
	TokenExpiry         time.Duration
	DefaultBaseCurrency string
	RateLimitPerMinute  int
}

type Server struct {
	http.Server
	statements          StatementService
	issuer              *TokenIssuer
	defaultBaseCurrency string
	rateLimiter         *rateLimiter
	tracer              *trace.Middleware
	shutdownOnce        sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, statements StatementService, collector *metrics.Collector, opts Options) *Server {
	mux := http.NewServeMux()

	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 60
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		statements:          statements,
		issuer:              NewTokenIssuer(opts.JWTSecret, opts.TokenExpiry),
		defaultBaseCurrency: opts.DefaultBaseCurrency,
		rateLimiter:         newRateLimiter(opts.RateLimitPerMinute),
		tracer:              trace.NewMiddleware(clientIP),
	}

	mux.Handle("/api/v1/transactions", s.tracer.Wrap(s.withRateLimit(s.withAuth(s.handleGetTransactions))))
	mux.Handle("/api/v1/auth/token", s.tracer.Wrap(s.withRateLimit(s.handleIssueToken)))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	if collector != nil {
		mux.Handle("/metrics", collector.Handler())
	}

	return s
}

// Shutdown stops the rate limiter cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRateLimit rejects clients exceeding their per-minute budget.
func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next(w, r)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
