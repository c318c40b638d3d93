// Package httpapi provides the JSON HTTP API for recipesearch.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dshills/recipesearch/internal/config"
	"github.com/dshills/recipesearch/internal/searcher"
	"github.com/dshills/recipesearch/internal/storage"
	"github.com/dshills/recipesearch/pkg/types"
)

// DefaultRequestTimeout bounds a request when the searcher has no tighter deadline.
const DefaultRequestTimeout = 60 * time.Second

// Server is the HTTP server for the recipesearch API.
type Server struct {
	searcher *searcher.Searcher
	storage  storage.Storage
	config   *config.ServerConfig
	defaults types.ConditionParams
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. defaults fills
// the condition fields a request omits.
func NewServer(
	srch *searcher.Searcher,
	store storage.Storage,
	cfg *config.ServerConfig,
	defaults types.ConditionParams,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		searcher: srch,
		storage:  store,
		config:   cfg,
		defaults: defaults,
		logger:   logger,
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(DefaultRequestTimeout))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/compare", s.handleCompare)
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/suggest", s.handleSuggest)
		r.Get("/recipes/{id}", s.handleGetRecipe)
		r.Get("/recipes/{id}/similar", s.handleSimilar)
		r.Get("/status", s.handleStatus)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("elapsed", time.Since(start)))
	})
}
