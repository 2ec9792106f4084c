// Package server exposes reqline over HTTP: a POST to / carrying
// {"reqline": "<statement>"} is parsed, executed and answered with the
// response envelope.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/reqline/packages/core/config"
	"github.com/abdul-hamid-achik/reqline/packages/core/runner"
)

// StatementRunner parses and executes one statement.
type StatementRunner interface {
	Run(ctx context.Context, statement string) (*runner.Result, error)
}

// Server is the reqline HTTP service
type Server struct {
	cfg        config.ServerConfig
	runner     StatementRunner
	limiter    *rate.Limiter
	schema     *gojsonschema.Schema
	httpServer *http.Server
	logger     *slog.Logger
}

// Option is a functional option for Server
type Option func(*Server)

// WithConfig sets listen address, limits and shutdown timeout
func WithConfig(cfg config.ServerConfig) Option {
	return func(s *Server) {
		s.cfg = cfg
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server that hands statements to r
func NewServer(r StatementRunner, opts ...Option) (*Server, error) {
	if r == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}

	s := &Server{
		cfg:    config.DefaultConfig().Server,
		runner: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	s.logger = s.logger.With("component", "server")

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(payloadSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling payload schema: %w", err)
	}
	s.schema = schema

	if s.cfg.RateLimit > 0 {
		burst := s.cfg.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), burst)
	}

	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler with request ids, logging and rate
// limiting applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /{$}", s.rateLimit(http.HandlerFunc(s.handleReqline)))
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.requestID(s.logRequests(mux))
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start listens on the configured address and serves until ctx is done
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.logger.Error("HTTP server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down server")

	timeout := time.Duration(s.cfg.ShutdownTimeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	return nil
}
