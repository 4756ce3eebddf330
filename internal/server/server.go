// Package server exposes rendering over HTTP.
//
//	POST /render   {"tree": {...}, "width": 1200, "height": 630, "format": "png", "quality": 80}
//	GET  /render?tree=<json>&width=1200&height=630&format=png
//	GET  /fonts    registered fonts
//	GET  /healthz  liveness
//
// Successful renders answer with the image bytes. Failures answer with
// {"error", "stage", "request_id"} and a status derived from the stage.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gogpu/ogimage/fonts"
	"github.com/gogpu/ogimage/internal/cache"
	"github.com/gogpu/ogimage/internal/fetch"
)

// DefaultMaxDimension is the viewport limit on either side when Config
// leaves it unset.
const DefaultMaxDimension = 4096

// Config tunes the service.
type Config struct {
	Addr string

	// Timeout bounds one render, prefetch included.
	Timeout time.Duration

	MaxBodyBytes int64

	// Defaults for fields a request leaves out.
	Width, Height int
	Format        string
	Quality       int

	// MaxWidth and MaxHeight bound the requested viewport. Larger
	// requests are rejected before decoding.
	MaxWidth, MaxHeight int

	CacheTTL time.Duration
}

// Server renders images for HTTP clients.
type Server struct {
	cfg      Config
	registry *fonts.Registry
	cache    cache.Store
	fetcher  *fetch.Fetcher
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCache stores outputs in c.
func WithCache(c cache.Store) Option { return func(s *Server) { s.cache = c } }

// WithFetcher enables downloading remote image sources.
func WithFetcher(f *fetch.Fetcher) Option { return func(s *Server) { s.fetcher = f } }

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// New returns a server rendering against reg.
func New(cfg Config, reg *fonts.Registry, opts ...Option) *Server {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 4 << 20
	}
	if cfg.Width <= 0 {
		cfg.Width = 1200
	}
	if cfg.Height <= 0 {
		cfg.Height = 630
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = DefaultMaxDimension
	}
	if cfg.MaxHeight <= 0 {
		cfg.MaxHeight = DefaultMaxDimension
	}
	s := &Server{
		cfg:      cfg,
		registry: reg,
		cache:    cache.Null{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/fonts", s.handleFonts)
	r.Post("/render", s.handleRenderPost)
	r.Get("/render", s.handleRenderGet)
	return r
}

// ListenAndServe serves until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
