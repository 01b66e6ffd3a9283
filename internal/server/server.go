// Package server provides the HTTP API for Almanac.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hyperjump/almanac/internal/cache"
	"github.com/hyperjump/almanac/internal/config"
	"github.com/hyperjump/almanac/internal/indexer"
	"github.com/hyperjump/almanac/internal/metrics"
	"github.com/hyperjump/almanac/internal/ranking"
	"github.com/hyperjump/almanac/internal/search"
	"github.com/hyperjump/almanac/internal/storage"
	"go.uber.org/zap"
)

// Server is the HTTP server for the Almanac API.
type Server struct {
	store   *cache.Store
	engine  *search.Engine
	scorer  *ranking.Scorer
	builder *indexer.Builder
	mirror  storage.Storage
	metrics *metrics.Metrics
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// Option configures optional server dependencies.
type Option func(*Server)

// WithBuilder enables rebuilding the artifact from POST /api/v1/index/reload?rebuild=true.
func WithBuilder(b *indexer.Builder) Option {
	return func(s *Server) { s.builder = b }
}

// WithMirror enables the entries listing backed by the SQLite mirror.
func WithMirror(m storage.Storage) Option {
	return func(s *Server) { s.mirror = m }
}

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	store *cache.Store,
	engine *search.Engine,
	scorer *ranking.Scorer,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:  store,
		engine: engine,
		scorer: scorer,
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearchGet)
		r.Post("/search", s.handleSearchPost)
		r.Get("/documents/*", s.handleGetDocument)
		r.Get("/sections/*", s.handleGetSection)
		r.Get("/related/*", s.handleRelated)
		r.Get("/entries", s.handleListEntries)
		r.Get("/entries/*", s.handleGetEntry)
		r.Post("/index/reload", s.handleReload)
		r.Post("/cache/invalidate", s.handleInvalidate)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requestIDHeader carries the request id in both directions.
const requestIDHeader = "X-Request-Id"

// requestID keeps a caller-supplied request id or assigns a UUID, exposes it to
// middleware.GetReqID and echoes it in the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// observe logs each request and records it under its route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		took := time.Since(start)
		s.metrics.RecordHTTPRequest(route, status, took)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("took", took),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
