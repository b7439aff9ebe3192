// SPDX-License-Identifier: MIT

// Package api serves the converter over HTTP: workbook uploads are detected
// or converted in dry-run mode and produced documents can be verified.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/epgconv/internal/config"
	"github.com/ManuGH/epgconv/internal/log"
)

const (
	// MaxUploadSize bounds every request body.
	MaxUploadSize = 32 << 20

	serviceName     = "epgconv"
	shutdownTimeout = 10 * time.Second
)

// ConfigSource yields the current configuration. *config.Holder satisfies it.
type ConfigSource interface {
	Get() config.Config
}

type staticConfig config.Config

func (c staticConfig) Get() config.Config { return config.Config(c) }

// Static wraps a fixed configuration as a ConfigSource.
func Static(cfg config.Config) ConfigSource { return staticConfig(cfg) }

// Server handles the HTTP surface.
type Server struct {
	cfg       ConfigSource
	version   string
	clock     func() time.Time
	rateLimit func(http.Handler) http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by /healthz.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithClock overrides the time used for date detection.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) { s.clock = clock }
}

// WithRateLimit replaces the upload rate limit; nil disables it.
func WithRateLimit(mw func(http.Handler) http.Handler) Option {
	return func(s *Server) { s.rateLimit = mw }
}

// New returns a server reading its configuration from cfg on every request.
func New(cfg ConfigSource, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		clock:     time.Now,
		rateLimit: UploadRateLimit(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(Recoverer)
	r.Use(RequestID)
	r.Use(OTelHTTP(serviceName))
	r.Use(AccessLog)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.rateLimit != nil {
			r.Use(s.rateLimit)
		}
		r.Use(limitBody(MaxUploadSize))
		r.Post("/detect", s.handleDetect)
		r.Post("/convert", s.handleConvert)
		r.Post("/verify", s.handleVerify)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	logger := log.WithComponent("api")
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info().Str(log.FieldEvent, "http.listen").Str("addr", addr).Msg("serving")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	logger.Info().Str(log.FieldEvent, "http.shutdown").Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
